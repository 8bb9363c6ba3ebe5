// Package service assembles the sensor pipeline and owns its goroutines.
//
// A SensorService wires, in data-flow order:
//
//	sampler.Driver → producer.Producer → queue.Queue → consumer.Consumer
//	    → delivery.Delivery (subscription gate, push) → delivery.Stack
//
// Peer events enter the delivery layer from the stack, which by default is
// the TCP gateway in package transport, optionally advertised over mDNS.
//
// Start brings the driver up first. A driver fault is returned from Start
// before any loop runs. Steady-state conditions (full queue, receive
// timeout, failed push) never stop the service; they show up in Stats and
// in the logs.
package service
