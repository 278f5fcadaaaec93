package server

import (
	"fmt"
	"sync"

	"github.com/hosniadilemp-a11y/Algorithemic-language-compiler/compiler"
)

// analysisRequest is one compilation to run on the worker goroutine.
type analysisRequest struct {
	source string
	done   chan analysisResult
}

type analysisResult struct {
	result *compiler.Result
	diags  []compiler.Diagnostic
	err    error
}

// Worker runs compilations for the language server on a single
// goroutine, so edits are analyzed in the order they arrive and a
// compiler panic cannot take down the connection.
type Worker struct {
	opts     compiler.Options
	requests chan analysisRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts its goroutine.
func NewWorker(opts compiler.Options) *Worker {
	w := &Worker{
		opts:     opts,
		requests: make(chan analysisRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.source)
		case <-w.quit:
			return
		}
	}
}

func (w *Worker) execute(source string) (res analysisResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("compiler panic: %v", r)
			res = analysisResult{err: fmt.Errorf("compiler panic: %v", r)}
		}
	}()
	res.result, res.diags = compiler.NewSession(w.opts).Compile(source)
	return res
}

// Compile analyzes source on the worker goroutine and waits for it.
func (w *Worker) Compile(source string) (*compiler.Result, []compiler.Diagnostic, error) {
	select {
	case <-w.quit:
		return nil, nil, fmt.Errorf("server: worker stopped")
	default:
	}
	req := analysisRequest{source: source, done: make(chan analysisResult, 1)}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, nil, fmt.Errorf("server: worker stopped")
	}
	select {
	case res := <-req.done:
		return res.result, res.diags, res.err
	case <-w.quit:
		return nil, nil, fmt.Errorf("server: worker stopped")
	}
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
