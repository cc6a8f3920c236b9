package rabbitmq

import (
	"reflect"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingDeclarer struct {
	args    map[string]amqp.Table
	durable map[string]bool
}

func newRecordingDeclarer() *recordingDeclarer {
	return &recordingDeclarer{args: map[string]amqp.Table{}, durable: map[string]bool{}}
}

func (r *recordingDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	r.args[name] = args
	r.durable[name] = durable
	return amqp.Queue{Name: name}, nil
}

func TestDeclareTopology(t *testing.T) {
	d := newRecordingDeclarer()
	if err := DeclareTopology(d, "ingest_jobs"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if len(d.args) != 2 {
		t.Fatalf("expected 2 queues, got %d: %v", len(d.args), d.args)
	}

	main, ok := d.args["ingest_jobs"]
	if !ok {
		t.Fatalf("main queue not declared")
	}
	if main["x-dead-letter-exchange"] != "" || main["x-dead-letter-routing-key"] != "ingest_jobs.dlq" {
		t.Fatalf("main queue must dead-letter to the dlq, got %v", main)
	}

	dlq, ok := d.args["ingest_jobs.dlq"]
	if !ok {
		t.Fatalf("dlq not declared")
	}
	if dlq != nil {
		t.Fatalf("dlq should have no arguments, got %v", dlq)
	}

	if !d.durable["ingest_jobs"] || !d.durable["ingest_jobs.dlq"] {
		t.Fatalf("queues must be durable: %v", d.durable)
	}
}

func TestDeclareTopology_Redeclarable(t *testing.T) {
	// The publisher and the worker both declare at startup. The broker
	// rejects a redeclaration with different arguments, so two independent
	// runs must produce identical declarations.
	first := newRecordingDeclarer()
	second := newRecordingDeclarer()
	if err := DeclareTopology(first, "ingest_jobs"); err != nil {
		t.Fatalf("first declare: %v", err)
	}
	if err := DeclareTopology(second, "ingest_jobs"); err != nil {
		t.Fatalf("second declare: %v", err)
	}

	if !reflect.DeepEqual(first.args, second.args) {
		t.Fatalf("declarations differ:\n%v\n%v", first.args, second.args)
	}
	if !reflect.DeepEqual(first.durable, second.durable) {
		t.Fatalf("durability differs:\n%v\n%v", first.durable, second.durable)
	}
}
