package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/vovakirdan/wireirc/internal/proto"
	"github.com/vovakirdan/wireirc/internal/transport"
)

type smokeConfig struct {
	nick    string
	channel string
	text    string
}

func main() {
	if err := run(); err != nil {
		log.Printf("smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:6667", "server host:port, or ws:// URL with -transport websocket")
	kind := flag.String("transport", transport.KindTCP, "tcp or websocket")
	useTLS := flag.Bool("tls", false, "connect over TLS")
	nick := flag.String("nick", "tester", "nickname to register with")
	channel := flag.String("channel", "#general", "channel to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := transport.Options{Kind: *kind, Addr: *addr, URL: *addr, TLS: *useTLS}
	conn, err := transport.Dial(ctx, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// ReadLine does not observe ctx, so the deadline is enforced by closing.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	err = smoke(ctx, conn, smokeConfig{nick: *nick, channel: *channel, text: *text}, os.Stdout)
	if err != nil && ctx.Err() != nil {
		fmt.Println("Timeout reached, exiting")
		return nil
	}
	return err
}

// smoke registers, waits for the welcome reply, then joins and sends one
// message. It answers PING and prints every line until the connection ends.
func smoke(ctx context.Context, conn transport.Conn, cfg smokeConfig, out io.Writer) error {
	mustSend := func(m proto.Message) error {
		line, err := proto.Encode(m)
		if err != nil {
			return err
		}
		if err := conn.WriteLine(ctx, line); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		fmt.Fprintf(out, "> %s\n", line)
		return nil
	}

	for _, m := range []proto.Message{proto.Nick(cfg.nick), proto.User(cfg.nick)} {
		if err := mustSend(m); err != nil {
			return err
		}
	}

	registered := false
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Fprintf(out, "< %s\n", line)

		msg := proto.Parse(line)
		if msg.Kind == proto.KindPing {
			if err := mustSend(proto.Pong(msg.Param)); err != nil {
				return err
			}
		}
		if strings.Contains(line, " 433 ") {
			return errors.New("nickname already in use")
		}
		// Servers ignore JOIN until registration completes with 001.
		if !registered && strings.Contains(line, " 001 ") {
			registered = true
			for _, m := range []proto.Message{proto.Join(cfg.channel), proto.Privmsg(cfg.channel, cfg.text)} {
				if err := mustSend(m); err != nil {
					return err
				}
			}
		}
	}
}
