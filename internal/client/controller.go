package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/csvexport"
	"gitlab.com/dirk.krummacker/guard-contacts/pkg/model"
)

// Messages shown to the user by the export dialog.
const (
	MsgExportFailed  = "Falha ao exportar contatos. Tente novamente."
	MsgEmailRequired = "Por favor, insira um email válido."
	MsgEmailFailed   = "Falha ao enviar email. Tente novamente."
)

var (
	// ErrEmailRequired is returned when email mode is submitted without an address.
	ErrEmailRequired = errors.New("email address required")

	// ErrBusy is returned when an export is submitted while another one is running.
	ErrBusy = errors.New("export already in progress")
)

// State is the phase of the export dialog.
type State int

const (
	Idle State = iota
	Warming
	Ready
	Exporting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Warming:
		return "warming"
	case Ready:
		return "ready"
	case Exporting:
		return "exporting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Mode selects how the export is delivered.
type Mode int

const (
	Download Mode = iota
	Email
)

// Exporter is the part of the API the export dialog needs.
type Exporter interface {
	Health(ctx context.Context) (model.HealthStatus, error)
	ExportCSV(ctx context.Context) ([]byte, string, error)
	ExportToEmail(ctx context.Context, email string) (model.ExportResult, error)
}

// Saver stores a downloaded export, e.g. as a file on disk.
type Saver interface {
	Save(filename string, content []byte) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(filename string, content []byte) error

func (f SaverFunc) Save(filename string, content []byte) error {
	return f(filename, content)
}

// ExportController drives the export dialog: idle, warming, ready, exporting and finally done or
// failed. A failed warm-up never blocks the export. Once submitted, an export runs to completion;
// neither closing the dialog nor cancelling the caller's context stops it.
type ExportController struct {
	api    Exporter
	saver  Saver
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	message string
	wg      sync.WaitGroup
}

// NewExportController creates a controller in the idle state.
func NewExportController(api Exporter, saver Saver, logger *zap.Logger) *ExportController {
	return &ExportController{api: api, saver: saver, logger: logger, now: time.Now}
}

// State returns the current phase.
func (c *ExportController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Message returns the text last shown to the user, if any.
func (c *ExportController) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Open is called when the dialog opens. It warms the service up and ends in the ready state
// whatever the outcome of the probe. While an export is running there is nothing to warm up.
func (c *ExportController) Open(ctx context.Context) {
	c.mu.Lock()
	if c.state == Exporting {
		c.mu.Unlock()
		return
	}
	c.state = Warming
	c.message = ""
	c.mu.Unlock()

	start := c.now()
	status, err := c.api.Health(ctx)
	if err != nil {
		c.logger.Warn("Server warm-up failed.", zap.Error(err))
	} else {
		c.logger.Debug("Server warmed up.",
			zap.Duration("took", c.now().Sub(start)),
			zap.Bool("coldStart", status.ColdStart),
			zap.String("message", status.Message))
	}

	c.mu.Lock()
	if c.state == Warming {
		c.state = Ready
	}
	c.mu.Unlock()
}

// Close is called when the dialog closes and returns the controller to idle. A running export is
// not aborted; it still ends in done or failed.
func (c *ExportController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Exporting {
		c.state = Idle
		c.message = ""
	}
}

// Submit runs one export and returns when it has finished. In email mode an empty address is
// rejected with ErrEmailRequired before anything is sent; the address is not validated further.
func (c *ExportController) Submit(ctx context.Context, mode Mode, email string) error {
	email = strings.TrimSpace(email)
	c.mu.Lock()
	if c.state == Exporting {
		c.mu.Unlock()
		return ErrBusy
	}
	if mode == Email && email == "" {
		c.message = MsgEmailRequired
		c.mu.Unlock()
		return ErrEmailRequired
	}
	c.state = Exporting
	c.message = ""
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var (
		message string
		err     error
	)
	if mode == Email {
		message, err = c.exportToEmail(ctx, email)
	} else {
		message, err = c.download(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = message
	if err != nil {
		c.state = Failed
		return err
	}
	c.state = Done
	return nil
}

// SubmitAsync starts Submit in the background. The returned channel receives its result and is
// closed afterwards.
func (c *ExportController) SubmitAsync(ctx context.Context, mode Mode, email string) <-chan error {
	result := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(result)
		result <- c.Submit(ctx, mode, email)
	}()
	return result
}

// Wait blocks until every export started with SubmitAsync has finished.
func (c *ExportController) Wait() {
	c.wg.Wait()
}

func (c *ExportController) download(ctx context.Context) (string, error) {
	content, filename, err := c.api.ExportCSV(ctx)
	if err != nil {
		c.logger.Error("Export failed.", zap.Error(err))
		return MsgExportFailed, err
	}
	if filename == "" {
		filename = csvexport.Filename(c.now())
	}
	if err := c.saver.Save(filename, content); err != nil {
		c.logger.Error("Could not save export.", zap.String("filename", filename), zap.Error(err))
		return MsgExportFailed, err
	}
	c.logger.Info("Export downloaded.", zap.String("filename", filename), zap.Int("bytes", len(content)))
	return "", nil
}

func (c *ExportController) exportToEmail(ctx context.Context, email string) (string, error) {
	result, err := c.api.ExportToEmail(ctx, email)
	if err != nil {
		c.logger.Error("Email export failed.", zap.Error(err))
		return MsgEmailFailed, err
	}
	return result.Message, nil
}
