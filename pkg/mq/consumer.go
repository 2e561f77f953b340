// Copyright Contributors to the Open Cluster Management project

package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"k8s.io/klog/v2"
)

// MessageReader is the part of a kafka.Reader used by the consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PlanRunner runs a plan request.
type PlanRunner interface {
	Run(ctx context.Context, req model.PlanRequest) model.PlanResponse
}

// Publisher sends the outcome of a plan to other consumers.
type Publisher interface {
	Publish(ctx context.Context, report model.Report) error
}

// PlanConsumer runs the plans requested on the plan topic, one at a time.
type PlanConsumer struct {
	reader    MessageReader
	runner    PlanRunner
	publisher Publisher
}

// NewPlanReader reads the plan topic as a member of the configured consumer group.
func NewPlanReader() *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Cfg.KafkaBrokers,
		GroupID:     config.Cfg.KafkaGroupID,
		Topic:       config.Cfg.KafkaPlanTopic,
		StartOffset: kafka.LastOffset,
	})
}

// NewPlanConsumer builds a consumer. publisher may be nil.
func NewPlanConsumer(reader MessageReader, runner PlanRunner, publisher Publisher) *PlanConsumer {
	return &PlanConsumer{reader: reader, runner: runner, publisher: publisher}
}

// Run consumes plan requests until ctx is cancelled or the reader is closed. A message is committed once
// its plan ran. Messages that are not plan requests are logged and skipped.
func (c *PlanConsumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			klog.Warning("Error closing plan reader. ", err)
		}
	}()
	klog.Info("Consuming plan requests from topic ", config.Cfg.KafkaPlanTopic)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				klog.Warning("Stopped consuming plan requests.")
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			klog.Errorf("Error committing offset %d of partition %d: %v", msg.Offset, msg.Partition, err)
		}
	}
}

func (c *PlanConsumer) handle(ctx context.Context, msg kafka.Message) {
	var req model.PlanRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		klog.Errorf("Error unmarshalling plan request at offset %d: %v", msg.Offset, err)
		return
	}
	if req.ResourceType == "" || req.ResourceID == "" {
		klog.Errorf("Skipping plan request at offset %d without resource type or id: %s", msg.Offset, string(msg.Value))
		return
	}
	klog.V(1).Infof("Received plan request. Type: %s\t Resource: %s\t Operation: %s", req.ResourceType, req.ResourceID, req.Operation)

	resp := c.runner.Run(ctx, req)
	klog.V(1).Infof("Plan for %s finished %s in %.1fs %s", resp.ResourceID, resp.State, resp.ElapsedSeconds, resp.Error)

	if c.publisher == nil {
		return
	}
	data := map[string]interface{}{
		"requestId":      resp.RequestID,
		"resourceType":   req.ResourceType,
		"operation":      req.Operation,
		"state":          resp.State,
		"error":          resp.Error,
		"elapsedSeconds": resp.ElapsedSeconds,
	}
	if err := c.publisher.Publish(ctx, model.NewReport(req.ResourceID, model.ReportPlan, data)); err != nil {
		klog.Warningf("Unable to publish plan outcome for %s: %v", req.ResourceID, err)
	}
}
