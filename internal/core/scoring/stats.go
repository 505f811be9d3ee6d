package scoring

// Snapshot is a copy of the counters at one point in time.
type Snapshot struct {
	Score  int `json:"score"`
	Combo  int `json:"combo"`
	Misses int `json:"misses"`
}

// Stats holds score, combo and misses for the current round. Score and
// misses only grow until Reset; combo drops to zero on any miss.
type Stats struct {
	score  int
	combo  int
	misses int

	onMiss func(Snapshot)
}

func NewStats() *Stats { return &Stats{} }

// OnMiss installs the alert hook called after every miss.
func (s *Stats) OnMiss(fn func(Snapshot)) { s.onMiss = fn }

// AddScore adds points and extends the combo. Negative points are ignored.
func (s *Stats) AddScore(points int) {
	if points < 0 {
		return
	}
	s.score += points
	s.combo++
}

// AddMiss counts a miss, breaks the combo and fires the alert hook.
func (s *Stats) AddMiss() {
	s.misses++
	s.combo = 0
	if s.onMiss != nil {
		s.onMiss(s.Snapshot())
	}
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.score, s.combo, s.misses = 0, 0, 0
}

func (s *Stats) Score() int  { return s.score }
func (s *Stats) Combo() int  { return s.combo }
func (s *Stats) Misses() int { return s.misses }

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{Score: s.score, Combo: s.combo, Misses: s.misses}
}
