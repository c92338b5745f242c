package p2p

import (
	"context"
	"sync"
	"time"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

const topicOrders = "peerdex-orders"

// OrderHandler receives every order announced by a peer. Handlers run on the
// subscription goroutine and should hand off quickly.
type OrderHandler func(ctx context.Context, w OrderWire)

type Config struct {
	ListenAddr     string   // libp2p multiaddr, e.g. /ip4/0.0.0.0/tcp/4001
	Bootstrap      []string // multiaddrs of known peers, dialed on startup
	DialRetries    int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
	Logger         *zap.SugaredLogger
}

// Net connects a node to the order gossip fabric: one gossipsub topic that
// carries order announcements. Delivery is best-effort; there is no retry or
// acknowledgement beyond what gossipsub provides.
type Net struct {
	h     host.Host
	ps    *pubsub.PubSub
	topic *pubsub.Topic
	sub   *pubsub.Subscription
	log   *zap.SugaredLogger

	publishTimeout time.Duration

	muH     sync.RWMutex
	handler OrderHandler
}

func NewNet(ctx context.Context, cfg Config) (*Net, error) {
	var opts []libp2p.Option
	if cfg.ListenAddr != "" {
		maddr, err := ma.NewMultiaddr(cfg.ListenAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.ListenAddrs(maddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, err
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, err
	}

	n := &Net{
		h:              h,
		ps:             ps,
		log:            cfg.Logger,
		publishTimeout: cfg.PublishTimeout,
	}

	for _, bs := range cfg.Bootstrap {
		if err := n.connectWithRetry(ctx, bs, cfg.DialRetries, cfg.RetryDelay); err != nil && cfg.Logger != nil {
			cfg.Logger.Warnw("bootstrap_connect_failed", "addr", bs, "err", err)
		}
	}

	if n.topic, err = ps.Join(topicOrders); err != nil {
		h.Close()
		return nil, err
	}
	if n.sub, err = n.topic.Subscribe(); err != nil {
		h.Close()
		return nil, err
	}

	go n.handleOrders(ctx)

	if cfg.Logger != nil {
		cfg.Logger.Infow("libp2p_ready", "peer", h.ID().String(), "listen", cfg.ListenAddr)
	}
	return n, nil
}

// SetHandler installs the callback for orders received from peers.
func (n *Net) SetHandler(h OrderHandler) {
	n.muH.Lock()
	n.handler = h
	n.muH.Unlock()
}

func (n *Net) Host() host.Host { return n.h }

// BroadcastOrder publishes an order announcement to the topic. The publish is
// bounded by the configured timeout; the caller owns any retry policy.
func (n *Net) BroadcastOrder(ctx context.Context, w OrderWire) error {
	data, err := encodeOrder(w)
	if err != nil {
		return err
	}
	if n.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.publishTimeout)
		defer cancel()
	}
	return n.topic.Publish(ctx, data)
}

func (n *Net) Close() error {
	n.sub.Cancel()
	if err := n.topic.Close(); err != nil {
		return err
	}
	return n.h.Close()
}

func (n *Net) connectWithRetry(ctx context.Context, addr string, retries int, delay time.Duration) error {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		err = n.h.Connect(ctx, *info)
		if err == nil || attempt >= retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (n *Net) handleOrders(ctx context.Context) {
	for {
		msg, err := n.sub.Next(ctx)
		if err != nil {
			return
		}
		// Our own broadcasts come back through the mesh; the local book has
		// already seen those orders.
		if msg.ReceivedFrom == n.h.ID() {
			continue
		}
		w, err := decodeOrder(msg.Data)
		if err != nil {
			if n.log != nil {
				n.log.Warnw("order_payload_invalid", "from", msg.ReceivedFrom.String(), "err", err)
			}
			continue
		}

		n.muH.RLock()
		h := n.handler
		n.muH.RUnlock()
		if h != nil {
			h(ctx, w)
		}
	}
}
