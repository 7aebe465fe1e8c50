package kumpul

import "sync"

// workerPool executes transfer tasks with bounded concurrency. Admission is
// FIFO; a worker holds its slot until the task it started reaches finished,
// which caps the number of transfers in flight system-wide.
type workerPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*transferTask
	running map[*transferTask]struct{}
	stopped bool
	wg      sync.WaitGroup
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}

	p := &workerPool{running: make(map[*transferTask]struct{})}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.running[task] = struct{}{}
		p.mu.Unlock()

		task.start()
		<-task.done

		p.mu.Lock()
		delete(p.running, task)
		p.mu.Unlock()
	}
}

// enqueue admits a task for eventual execution. It never blocks, so callers
// may hold their own locks across it. Tasks enqueued after stop are
// cancelled so their completion callbacks still fire.
func (p *workerPool) enqueue(t *transferTask) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		t.cancel()
		t.start()
		return
	}
	p.queue = append(p.queue, t)
	p.mu.Unlock()
	p.cond.Signal()
}

// cancelAll cancels every queued and executing task. Queued tasks still pass
// through a worker, so their completion callbacks fire with a cancelled
// outcome rather than being dropped.
func (p *workerPool) cancelAll() {
	p.mu.Lock()
	tasks := make([]*transferTask, 0, len(p.queue)+len(p.running))
	tasks = append(tasks, p.queue...)
	for t := range p.running {
		tasks = append(tasks, t)
	}
	p.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
}

// stop wakes all workers and waits for them to exit. Queued tasks that never
// ran are started in a cancelled state so they still complete; callers are
// expected to cancelAll first.
func (p *workerPool) stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	abandoned := p.queue
	p.queue = nil
	p.mu.Unlock()

	p.cond.Broadcast()
	for _, t := range abandoned {
		t.cancel()
		t.start()
	}
	p.wg.Wait()
}
