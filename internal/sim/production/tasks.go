package production

import (
	"sort"

	"glavblock.dev/internal/sim/catalogs"
	"glavblock.dev/internal/sim/entity"
)

// TaskMeta is the outstanding work of one task. Remaining only ever shrinks.
type TaskMeta struct {
	Profession     catalogs.Profession     `json:"profession"`
	Tier           catalogs.Tier           `json:"tier"`
	Remaining      catalogs.BuildPower     `json:"remaining"`
	Stationary     catalogs.StationaryID   `json:"stationary,omitempty"`
	Specialization catalogs.Specialization `json:"specialization,omitempty"`
}

func metaFromSpec(s catalogs.TaskSpec) TaskMeta {
	return TaskMeta{
		Profession:     s.Profession,
		Tier:           s.Tier,
		Remaining:      s.BuildPower,
		Stationary:     s.Stationary,
		Specialization: s.Specialization,
	}
}

// NeedsEquipment reports whether the task is worked on a stationary.
func (m TaskMeta) NeedsEquipment() bool { return !m.Stationary.IsZero() }

// Output is delivered to storage when a production task completes.
type Output struct {
	Recipe   string            `json:"recipe"`
	Resource catalogs.Resource `json:"resource"`
	Amount   int               `json:"amount"`
}

type Task struct {
	Priority  int       `json:"priority"`
	Meta      TaskMeta  `json:"meta"`
	BelongsTo entity.ID `json:"belongs_to,omitempty"` // stationary under construction, 0 for production
	Output    *Output   `json:"output,omitempty"`
}

// Queue holds pending tasks. Task ids are allocated in creation order and
// double as the tie-break sequence within a priority.
type Queue struct {
	tasks *entity.Store[Task]
}

func NewQueue() *Queue {
	return &Queue{tasks: entity.NewStore[Task]()}
}

func (q *Queue) Add(t Task) entity.ID {
	id, _ := q.tasks.Create(t)
	return id
}

func (q *Queue) Get(id entity.ID) (*Task, bool) { return q.tasks.Get(id) }

func (q *Queue) Len() int { return q.tasks.Len() }

func (q *Queue) Each(fn func(entity.ID, *Task) bool) { q.tasks.Each(fn) }

// Ordered returns task ids by ascending priority, then creation order.
func (q *Queue) Ordered() []entity.ID {
	ids := q.tasks.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := q.tasks.Get(ids[i])
		b, _ := q.tasks.Get(ids[j])
		return a.Priority < b.Priority
	})
	return ids
}

// HasOwner reports whether any pending task belongs to the stationary.
func (q *Queue) HasOwner(stationary entity.ID) bool {
	found := false
	q.tasks.Each(func(_ entity.ID, t *Task) bool {
		if t.BelongsTo == stationary {
			found = true
			return false
		}
		return true
	})
	return found
}

// Pending sums the remaining build power of tasks owned by a stationary.
func (q *Queue) Pending(stationary entity.ID) catalogs.BuildPower {
	var sum catalogs.BuildPower
	q.Each(func(_ entity.ID, t *Task) bool {
		if t.BelongsTo == stationary {
			sum += t.Meta.Remaining
		}
		return true
	})
	return sum
}

type Completed struct {
	ID   entity.ID
	Task Task
}

// Sweep removes every finished task and returns them in id order.
func (q *Queue) Sweep() []Completed {
	var done []Completed
	q.tasks.Each(func(id entity.ID, t *Task) bool {
		if t.Meta.Remaining <= 0 {
			done = append(done, Completed{ID: id, Task: *t})
		}
		return true
	})
	for _, c := range done {
		q.tasks.Delete(c.ID)
	}
	return done
}

func (q *Queue) Restore(id entity.ID, t Task) { q.tasks.Insert(id, t) }

func (q *Queue) LastID() entity.ID { return q.tasks.Last() }

func (q *Queue) SetLastID(id entity.ID) { q.tasks.SetLast(id) }
