package core

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, testSecret, nil)
	go hub.Run(ctx)

	sender := NewClient("sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandLogin, Username: "sender"}
	<-sender.Events // login result

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient("c" + strconv.Itoa(i))
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandLogin, Username: "user" + strconv.Itoa(i)}
		clients = append(clients, c)
	}

	// Drain events for everyone but the sender to avoid channel backpressure.
	for _, c := range clients {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	// Flush the join noise from the sender's buffer before timing.
drain:
	for {
		select {
		case <-sender.Events:
		case <-time.After(100 * time.Millisecond):
			break drain
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Text: "payload"}
		for {
			ev := <-sender.Events
			if ev.Kind == EventChatMessage {
				break
			}
		}
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
