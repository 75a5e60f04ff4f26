package main

import (
	"flag"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aeolun/netmsg/pkg/alloc"
	"github.com/aeolun/netmsg/pkg/bitstream"
	"github.com/aeolun/netmsg/pkg/message"
)

// endpoint simulates one connection's send side and its peer's receive side.
// Each side has its own factory and allocator budget, so an exhausted sender
// never affects any other connection in the run.
type endpoint struct {
	id       int
	cfg      SoakSection
	rng      *rand.Rand
	sender   *message.Factory
	receiver *message.Factory
	sendID   uint16

	// retained holds in-flight references per tick slot, simulating a
	// retransmit buffer that lets go of messages RetainTicks later.
	retained [][]message.Message
}

func newEndpoint(id int, cfg SoakSection, metrics *message.Metrics) (*endpoint, error) {
	sender, err := message.NewFactory(
		alloc.NewBounded(alloc.NewHeap(), cfg.AllocatorBudget),
		soakTable,
		message.WithMetrics(metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create send factory")
	}
	receiver, err := message.NewFactory(
		alloc.NewBounded(alloc.NewHeap(), cfg.AllocatorBudget),
		soakTable,
		message.WithMetrics(metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create receive factory")
	}
	return &endpoint{
		id:       id,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(int64(id) + 1)),
		sender:   sender,
		receiver: receiver,
		retained: make([][]message.Message, cfg.RetainTicks+1),
	}, nil
}

// createMessage builds a random message for this tick, attaching a block to
// every BlockEvery-th one. Returns nil when the sender's budget is exhausted.
func (e *endpoint) createMessage(tick, index int) message.Message {
	messageType := typeKeepAlive
	switch {
	case e.cfg.BlockEvery > 0 && index%e.cfg.BlockEvery == e.cfg.BlockEvery-1:
		messageType = typeSnapshot
	case index%2 == 0:
		messageType = typeEntityState
	}

	m := e.sender.Create(messageType)
	if m == nil {
		return nil
	}

	switch msg := m.(type) {
	case *keepAliveMessage:
		msg.Sequence = uint16(tick)
	case *entityStateMessage:
		msg.Entity = uint32(e.rng.Intn(10000))
		msg.X = int32(e.rng.Intn(65536) - 32768)
		msg.Y = int32(e.rng.Intn(65536) - 32768)
		msg.Urgent = e.rng.Intn(10) == 0
	case *snapshotMessage:
		msg.Tick = uint32(tick)
		data := e.sender.Allocator().Allocate(e.cfg.BlockSize)
		if data == nil {
			// Block didn't fit the budget; send the snapshot header bare.
			break
		}
		e.rng.Read(data)
		message.AsBlockMessage(m).AttachBlock(e.sender.Allocator(), data)
	}
	return m
}

// tick packs one simulated connection packet: measure each message against
// the remaining budget, write the ones that fit, keep an in-flight reference,
// then round-trip the packet through the receiving factory.
func (e *endpoint) tick(tick int) error {
	slot := tick % len(e.retained)
	for _, m := range e.retained[slot] {
		e.sender.Release(m)
	}
	e.retained[slot] = nil

	packet := bitstream.NewWriteStream(e.cfg.PacketBudget)
	var sentTypes []int

	for i := 0; i < e.cfg.BatchSize; i++ {
		m := e.createMessage(tick, i)
		if m == nil {
			break
		}
		m.SetID(e.sendID)
		e.sendID++

		measure := bitstream.NewMeasureStream()
		if err := m.Serialize(measure); err != nil {
			e.sender.Release(m)
			return errors.Wrap(err, "measure message")
		}
		if packet.BitsProcessed()+measure.BitsProcessed() > e.cfg.PacketBudget*8 {
			// Packet is full; drop the message on the floor like a channel
			// would defer it.
			e.sender.Release(m)
			break
		}
		if err := m.Serialize(packet); err != nil {
			e.sender.Release(m)
			return errors.Wrap(err, "write message")
		}
		sentTypes = append(sentTypes, m.Type())

		// The retransmit buffer holds its own reference; the creator's
		// reference drops immediately after sending.
		e.sender.AddRef(m)
		e.retained[slot] = append(e.retained[slot], m)
		e.sender.Release(m)
	}

	reader := bitstream.NewReadStream(packet.Data())
	for _, messageType := range sentTypes {
		received := e.receiver.Create(messageType)
		if received == nil {
			break
		}
		if err := received.Serialize(reader); err != nil {
			e.receiver.Release(received)
			return errors.Wrap(err, "read message")
		}
		e.receiver.Release(received)
	}

	return nil
}

func (e *endpoint) run() error {
	for tick := 0; tick < e.cfg.Ticks; tick++ {
		if err := e.tick(tick); err != nil {
			e.drain()
			return errors.Wrapf(err, "connection %d tick %d", e.id, tick)
		}
		// The owning connection checks the error level after every batch of
		// creation attempts; allocation failure means this peer exhausted its
		// budget and gets disconnected.
		if e.sender.Error() != message.ErrorLevelNone || e.receiver.Error() != message.ErrorLevelNone {
			log.Printf("[conn %d] allocator exhausted at tick %d (send: %v, recv: %v), disconnecting",
				e.id, tick, e.sender.Error(), e.receiver.Error())
			break
		}
	}

	e.drain()
	if err := e.sender.Close(); err != nil {
		return errors.Wrapf(err, "connection %d send factory teardown", e.id)
	}
	if err := e.receiver.Close(); err != nil {
		return errors.Wrapf(err, "connection %d receive factory teardown", e.id)
	}
	return nil
}

func (e *endpoint) drain() {
	for slot, msgs := range e.retained {
		for _, m := range msgs {
			e.sender.Release(m)
		}
		e.retained[slot] = nil
	}
}

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	metrics := message.NewMetrics(prometheus.DefaultRegisterer)

	if cfg.Metrics.ListenAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, nil); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
		log.Printf("Serving metrics on %s/metrics", cfg.Metrics.ListenAddr)
	}

	log.Printf("Starting soak test:")
	log.Printf("  Connections: %d", cfg.Soak.Connections)
	log.Printf("  Ticks: %d", cfg.Soak.Ticks)
	log.Printf("  Batch size: %d", cfg.Soak.BatchSize)
	log.Printf("  Allocator budget: %d bytes per endpoint", cfg.Soak.AllocatorBudget)
	log.Printf("  Packet budget: %d bytes", cfg.Soak.PacketBudget)

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < cfg.Soak.Connections; i++ {
		id := i
		g.Go(func() error {
			e, err := newEndpoint(id, cfg.Soak, metrics)
			if err != nil {
				return err
			}
			return e.run()
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Soak test failed: %v", err)
	}
	log.Printf("Soak test completed in %v", time.Since(start))
}
