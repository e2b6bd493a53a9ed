package sim

import "math"

// Ticks is a duration or a point on the simulated time line, counted in
// integer ticks. The clock starts at 0 and never goes backward.
type Ticks int64

// Priority orders events that share a tick. A smaller value dispatches
// first.
type Priority int

// WakePriority is reserved for the events that resume processes whose
// wait condition became true. It is the largest possible priority, so a
// wake event runs after every ordinary event queued at the same tick
// and before anything at a later tick. Collaborators must not schedule
// ordinary work at this priority.
const WakePriority Priority = math.MaxInt32
