// Copyright Contributors to the Open Cluster Management project

// Package mq reads plan requests from Kafka and publishes reconciliation reports to it.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"k8s.io/klog/v2"
)

// ReportPublisher sends reports to the report topic, keyed by circuit id.
type ReportPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewReportPublisher connects a producer to the configured brokers.
func NewReportPublisher() (*ReportPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.ClientID = config.Cfg.PodName
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = config.Cfg.NumberOfRetries
	saramaConfig.Producer.Retry.Backoff = time.Duration(config.Cfg.WaitSeconds) * time.Second

	producer, err := sarama.NewSyncProducer(config.Cfg.KafkaBrokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating report producer: %w", err)
	}
	return NewReportPublisherWithProducer(producer, config.Cfg.KafkaReportTopic), nil
}

// NewReportPublisherWithProducer publishes to topic through producer.
func NewReportPublisherWithProducer(producer sarama.SyncProducer, topic string) *ReportPublisher {
	return &ReportPublisher{producer: producer, topic: topic}
}

// Publish sends the report and waits for the brokers to acknowledge it.
func (p *ReportPublisher) Publish(ctx context.Context, report model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer metrics.SlowLog(fmt.Sprintf("Publishing report %s", report.ID), 0)()

	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report %s: %w", report.ID, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(report.CID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(report.Kind)},
		},
	}
	start := time.Now()
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		metrics.ObserveOutbound("kafka", start, 0)
		return fmt.Errorf("publishing report %s: %w", report.ID, err)
	}
	metrics.ObserveOutbound("kafka", start, 200)
	klog.V(3).Infof("Published %s report %s for %s to %s/%d at offset %d", report.Kind, report.ID, report.CID, p.topic, partition, offset)
	return nil
}

// Close flushes and closes the producer.
func (p *ReportPublisher) Close() error {
	return p.producer.Close()
}
