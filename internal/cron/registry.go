package cron

import "context"

// Job is one unit of sweep work, such as bumping the badge cache when an offer
// window opens or closes. Name doubles as the job metric label and log field.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the sweep jobs in run order, one per name.
type Registry struct {
	jobs   []Job
	byName map[string]int
}

// NewRegistry registers jobs in argument order; nil entries are skipped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{byName: make(map[string]int, len(jobs))}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register appends job to the sweep. A job reusing a registered name takes
// over that slot so its metric series stay single-valued.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if idx, ok := r.byName[job.Name()]; ok {
		r.jobs[idx] = job
		return
	}
	r.byName[job.Name()] = len(r.jobs)
	r.jobs = append(r.jobs, job)
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.jobs[idx], true
}

// Jobs returns a copy of the sweep jobs in run order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
