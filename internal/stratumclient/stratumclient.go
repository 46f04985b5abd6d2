// Package stratumclient is the out-of-scope stratum client named by
// the Controller's interface: it turns inbound job/seed announcements
// into controller.MinerMessage values and republishes found solutions.
//
// The real protocol this client would speak is a stratum-style TCP/JSON
// session with a pool server; no such transport is in this module's
// dependency set, so this is a libp2p pubsub-backed stand-in, retargeted
// from the teacher's block-gossip P2PNode (net/p2p.go, net/topics.go) —
// same NewP2PNode/topic-subscription/announce shape, new topics and
// message types for job/seed/solution traffic instead of blocks.
package stratumclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	mdns "github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/multiformats/go-multiaddr"

	"corepow/internal/controller"
)

// Topics mirror the teacher's block-gossip topic constants, retargeted
// to the mining traffic this client carries.
const (
	TopicJob      = "corepow/job/1"
	TopicSeed     = "corepow/seed/1"
	TopicSolution = "corepow/solution/1"
)

// jobWireMessage is the JSON payload carried on TopicJob.
type jobWireMessage struct {
	Height uint64 `json:"height"`
	JobID  uint64 `json:"job_id"`
	Diff   uint64 `json:"diff"`
	PrePow string `json:"pre_pow"`
}

// seedWireMessage is the JSON payload carried on TopicSeed.
type seedWireMessage struct {
	StartHeight uint64   `json:"start_height"`
	EndHeight   uint64   `json:"end_height"`
	Seed        [32]byte `json:"seed"`
}

// Client is a minimal libp2p node that bridges pubsub topics to a
// Controller's MinerMessage inbound channel, mirroring the teacher's
// P2PNode lifecycle (New.../Subscribe/mDNS/handler goroutines).
type Client struct {
	host   host.Host
	pubsub *pubsub.PubSub

	jobSub      *pubsub.Subscription
	seedSub     *pubsub.Subscription
	solutionTopic *pubsub.Topic

	inbound chan<- controller.MinerMessage
}

// mdnsNotifee implements the mdns.Notifee interface, matching the
// teacher's net/p2p.go mdnsNotifee: log each discovered peer.
type mdnsNotifee struct{}

func (n *mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	log.Printf("stratumclient: mDNS discovered peer: %s", info.ID.String())
}

// New dials a libp2p host listening on listenPort, subscribes to the
// job/seed topics, and joins the solution topic for publishing. inbound
// is the Controller's inbound channel (Controller.Inbound()).
func New(ctx context.Context, listenPort int, inbound chan<- controller.MinerMessage) (*Client, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(
		fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", listenPort),
	))
	if err != nil {
		return nil, err
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, err
	}

	jobSub, err := ps.Subscribe(TopicJob)
	if err != nil {
		return nil, err
	}
	seedSub, err := ps.Subscribe(TopicSeed)
	if err != nil {
		return nil, err
	}
	solutionTopic, err := ps.Join(TopicSolution)
	if err != nil {
		return nil, err
	}

	mdns.NewMdnsService(h, "corepow-mdns", &mdnsNotifee{})
	log.Printf("stratumclient: mDNS peer discovery enabled")

	c := &Client{host: h, pubsub: ps, jobSub: jobSub, seedSub: seedSub, solutionTopic: solutionTopic, inbound: inbound}
	go c.handleJobs(ctx)
	go c.handleSeeds(ctx)
	go c.logPeersPeriodically(ctx)
	return c, nil
}

// Addrs returns the node's listen multiaddrs, for operators wiring a
// bootstrap list between miner instances.
func (c *Client) Addrs() []multiaddr.Multiaddr { return c.host.Addrs() }

func (c *Client) handleJobs(ctx context.Context) {
	for {
		msg, err := c.jobSub.Next(ctx)
		if err != nil {
			return
		}
		var w jobWireMessage
		if err := json.Unmarshal(msg.Data, &w); err != nil {
			log.Printf("stratumclient: malformed job message: %v", err)
			continue
		}
		c.inbound <- controller.MinerMessage{
			Kind: controller.ReceivedJob, Height: w.Height, JobID: w.JobID, Diff: w.Diff, PrePow: w.PrePow,
		}
	}
}

func (c *Client) handleSeeds(ctx context.Context) {
	for {
		msg, err := c.seedSub.Next(ctx)
		if err != nil {
			return
		}
		var w seedWireMessage
		if err := json.Unmarshal(msg.Data, &w); err != nil {
			log.Printf("stratumclient: malformed seed message: %v", err)
			continue
		}
		c.inbound <- controller.MinerMessage{
			Kind: controller.ReceivedSeed,
			Epochs: []controller.SeedEntry{
				{StartHeight: w.StartHeight, EndHeight: w.EndHeight, Seed: w.Seed},
			},
		}
	}
}

func (c *Client) logPeersPeriodically(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("stratumclient: connected peers: %d", len(c.host.Network().Peers()))
		}
	}
}

// PublishSolution republishes a FoundSolution ClientMessage onto the
// solution topic, the outbound half of the stratum round-trip.
func (c *Client) PublishSolution(ctx context.Context, msg controller.ClientMessage) error {
	data, err := json.Marshal(struct {
		Height uint64 `json:"height"`
		Nonce  uint64 `json:"nonce"`
		JobID  uint64 `json:"job_id"`
	}{Height: msg.Height, Nonce: msg.Solution.Nonce, JobID: msg.Solution.ID})
	if err != nil {
		return err
	}
	return c.solutionTopic.Publish(ctx, data)
}

// Close shuts down the libp2p host.
func (c *Client) Close() error { return c.host.Close() }
