package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/usecase"
)

const defaultQueueSize = 16

// Worker is the background execution context for sync operations. Requests
// arrive as messages and each runs on its own goroutine; nothing serialises
// them beyond what the local store guarantees.
type Worker struct {
	syncer usecase.SyncUsecase
	logger logrus.FieldLogger

	requests chan *Request
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	inFlight  atomic.Int32
}

// Option customises a Worker.
type Option func(*Worker)

// WithQueueSize sets how many requests may wait for dispatch.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.requests = make(chan *Request, n)
		}
	}
}

// New creates a worker running operations on syncer. Call Start before sending requests.
func New(syncer usecase.SyncUsecase, logger *logrus.Logger, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		syncer:   syncer,
		logger:   logger.WithField("component", "worker"),
		requests: make(chan *Request, defaultQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the dispatch loop.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go w.loop()
	})
}

// Stop cancels running operations and waits for them to return.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.wg.Wait()
	})
}

// InFlight reports how many operations are currently running.
func (w *Worker) InFlight() int {
	return int(w.inFlight.Load())
}

// Client returns a proxy that exposes the worker as a SyncUsecase.
func (w *Worker) Client() *Client {
	return &Client{w: w}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case req := <-w.requests:
			if req.Op.inline() {
				w.handle(req)
				continue
			}
			w.wg.Add(1)
			w.inFlight.Add(1)
			go func() {
				defer w.wg.Done()
				defer w.inFlight.Add(-1)
				w.handle(req)
			}()
		}
	}
}

// handle runs req under a context cancelled by either the caller or Stop.
func (w *Worker) handle(req *Request) {
	ctx, cancel := context.WithCancel(req.ctx)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	start := time.Now()
	res := w.run(ctx, req)

	log := w.logger.WithField("op", req.Op.String()).WithField("duration", time.Since(start))
	if res.Err != nil {
		log.WithError(res.Err).Debug("operation failed")
	} else {
		log.Debug("operation completed")
	}
	req.reply <- res
}

func (w *Worker) run(ctx context.Context, req *Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("op", req.Op.String()).WithField("panic", r).Error("operation panicked")
			res = Result{Err: fmt.Errorf("worker: %s panicked: %v", req.Op, r)}
		}
	}()

	switch req.Op {
	case OpSetToken:
		w.syncer.SetToken(req.Token)
	case OpHasToken:
		res.HasToken = w.syncer.HasToken()
	case OpSync:
		res.Err = w.syncer.Sync(ctx, req.Force)
	case OpSyncUser:
		res.Err = w.syncer.SyncUser(ctx, req.Force)
	case OpSyncSubjects:
		res.Err = w.syncer.SyncSubjects(ctx, req.Force)
	case OpSyncAssignments:
		res.Err = w.syncer.SyncAssignments(ctx, req.Force)
	case OpSyncStudyMaterials:
		res.Err = w.syncer.SyncStudyMaterials(ctx, req.Force)
	case OpMigrateSubjects:
		res.Migration, res.Err = w.syncer.MigrateSubjects(ctx, req.Force)
	case OpMigrateAssignments:
		res.Migration, res.Err = w.syncer.MigrateAssignments(ctx, req.Force)
	case OpSyncEncounterItems:
		res.Push, res.Err = w.syncer.SyncEncounterItems(ctx)
	case OpPopulateKana:
		res.Count, res.Err = w.syncer.PopulateKana(ctx)
	case OpClearData:
		res.Err = w.syncer.ClearData(ctx)
	case OpStartAssignment:
		res.Err = w.syncer.StartAssignment(ctx, req.AssignmentID)
	case OpApplyReviewOutcome:
		res.Err = w.syncer.ApplyReviewOutcome(ctx, req.AssignmentID, req.Correct)
	default:
		res.Err = fmt.Errorf("worker: unknown op %d", int(req.Op))
	}
	return res
}

// Send delivers req and waits for its reply.
func (w *Worker) Send(ctx context.Context, req Request) Result {
	if w.ctx.Err() != nil {
		return Result{Err: entity.ErrWorkerClosed}
	}
	req.ctx = ctx
	req.reply = make(chan Result, 1)

	select {
	case w.requests <- &req:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-w.ctx.Done():
		return Result{Err: entity.ErrWorkerClosed}
	}

	select {
	case res := <-req.reply:
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-w.ctx.Done():
		// A stopped worker still replies once its goroutine observes the cancellation.
		select {
		case res := <-req.reply:
			return res
		case <-time.After(time.Second):
			return Result{Err: entity.ErrWorkerClosed}
		}
	}
}
