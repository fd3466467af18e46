// Package task carries the one piece of domain knowledge the gateway
// owns: the status codes the monitoring task service understands, and the
// two transition shortcuts built on the generic status update.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"monitoring-gateway/internal/upstream"
)

// Status codes of the monitoring task service. The upstream owns the task
// record and is the sole enforcer of which transitions are legal.
const (
	StatusAssigned       = 1
	StatusInProgress     = 2
	StatusAwaitingReview = 3
	StatusCompleted      = 4
	StatusCanceled       = 5
)

type Lifecycle struct {
	client *upstream.Client
}

func NewLifecycle(client *upstream.Client) *Lifecycle {
	return &Lifecycle{client: client}
}

type startBody struct {
	Status int     `json:"status"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

type statusBody struct {
	Status int `json:"status"`
}

// Start moves a task to IN_PROGRESS, recording where the worker was when
// they picked it up.
func (l *Lifecycle) Start(ctx context.Context, token, taskID string, lat, lng float64) (*upstream.Result, error) {
	return l.update(ctx, token, taskID, startBody{Status: StatusInProgress, Lat: lat, Lng: lng})
}

// Complete moves a task to COMPLETED.
func (l *Lifecycle) Complete(ctx context.Context, token, taskID string) (*upstream.Result, error) {
	return l.update(ctx, token, taskID, statusBody{Status: StatusCompleted})
}

func (l *Lifecycle) update(ctx context.Context, token, taskID string, body any) (*upstream.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal status update: %w", err)
	}
	return l.client.Do(ctx, upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPut,
		Path:        "/task/" + taskID,
		Token:       token,
		Body:        payload,
		ContentType: "application/json",
	})
}
