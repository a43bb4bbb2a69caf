// Package fitbitsync exposes the sync pipeline as a Cloud Function with an
// HTTP trigger and a Cloud Scheduler (Pub/Sub CloudEvent) trigger.
package fitbitsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/okkyok/Fibit2Obsidian/pkg/bootstrap"
	"github.com/okkyok/Fibit2Obsidian/pkg/framework"
	fitsync "github.com/okkyok/Fibit2Obsidian/pkg/sync"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("SyncFitbit", SyncFitbit)
	functions.CloudEvent("SyncFitbitScheduled", SyncFitbitScheduled)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
	})
	return svc, svcErr
}

func runPipeline(ctx context.Context, fwCtx *framework.FrameworkContext) (interface{}, error) {
	pipeline := fitsync.NewPipeline(fwCtx.Service)
	pipeline.Logger = fwCtx.Logger
	return pipeline.Run(ctx)
}

// errorResponse mirrors RunReport's shape for fatal failures.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SyncFitbit is the HTTP entry point. The request body is ignored; a 2xx
// response means the invocation ran, with per-date outcomes in the body.
func SyncFitbit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	svc, err := initService(ctx)
	if err != nil {
		slog.Error("Service init failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse{
			Error:   err.Error(),
			Message: "service initialization failed",
		})
		return
	}

	outputs, err := framework.WrapInvocation("fitbit-sync", svc, runPipeline)(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		var authErr *fitsync.AuthError
		if errors.As(err, &authErr) {
			status = http.StatusBadGateway
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorResponse{
			Error:   err.Error(),
			Message: "sync aborted",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(outputs)
}

// SyncFitbitScheduled is the Cloud Scheduler entry point. The tick payload
// carries no information; the trigger itself is the instruction to sync.
func SyncFitbitScheduled(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %w", err)
	}

	_, err = framework.WrapInvocation("fitbit-sync-scheduled", svc, runPipeline)(ctx)
	return err
}
