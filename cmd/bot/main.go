package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
	"github.com/StoreStation/VibeShitBot/pkg/client"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

func main() {
	defaults := client.DefaultConfig()
	address := flag.String("address", defaults.Address, "Server address (host[:port], or a ws:// gateway URL)")
	username := flag.String("username", defaults.Username, "Offline username")
	version := flag.Int("version", int(defaults.Version), "Protocol version (751-756)")
	viewDistance := flag.Int("view-distance", int(defaults.Settings.ViewDistance), "View distance in chunks")
	workers := flag.Int("chunk-workers", defaults.ChunkWorkers, "Background chunk decode workers (0 = decode on access)")
	compressChunks := flag.Bool("compress-chunks", false, "Keep undecoded chunk bytes snappy-compressed")
	stackConfirmations := flag.Bool("stack-confirmations", false, "Queue repeated window confirmations instead of overwriting")
	autoRespawn := flag.Bool("auto-respawn", defaults.AutoRespawn, "Respawn automatically after death")
	debug := flag.Bool("debug", false, "Log unhandled packets")
	flag.Parse()

	cfg := defaults
	cfg.Address = *address
	cfg.Username = *username
	cfg.Version = int32(*version)
	cfg.Settings.ViewDistance = int8(*viewDistance)
	cfg.ChunkWorkers = *workers
	cfg.CompressChunks = *compressChunks
	cfg.StackConfirmations = *stackConfirmations
	cfg.AutoRespawn = *autoRespawn
	cfg.Debug = *debug

	handlers := client.Handlers{
		OnJoin: func(c *client.Client) {
			info := c.World.Info()
			log.Printf("In %s (gamemode %d)", info.Dimension, info.Gamemode)
		},
		OnChat: func(c *client.Client, msg chat.Message, position int8, sender uuid.UUID) {
			text := msg.PlainText()
			log.Printf("[chat] %s", text)
			// Echo "!pos" requests so the bot can be poked from in game.
			if strings.HasSuffix(text, "!pos") {
				p := c.World.Player.Snapshot().Position
				c.Chat(fmt.Sprintf("I am at %.1f, %.1f, %.1f", p.X(), p.Y(), p.Z()))
			}
		},
		OnHealth: func(c *client.Client, s world.PlayerState) {
			log.Printf("Health %.1f, food %d", s.Health, s.Food)
		},
		OnDisconnect: func(c *client.Client, reason chat.Message) {
			log.Printf("Disconnected: %s", reason.PlainText())
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+cfg.ReadTimeout)
	c, err := client.JoinServer(ctx, cfg, nil, handlers)
	cancel()
	if err != nil {
		log.Fatalf("Failed to join %s: %v", cfg.Address, err)
	}

	log.Printf("VibeShitBot joined %s (Protocol %d)", cfg.Address, cfg.Version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case sig := <-sigCh:
			log.Printf("Leaving (received signal: %v)...", sig)
			c.Close()
			return
		case <-c.Done():
			if err := c.Err(); err != nil {
				log.Fatalf("Session ended: %v", err)
			}
			log.Println("Session ended.")
			return
		case <-ticker.C:
			log.Printf("%d chunks loaded, %d entities tracked", c.World.Chunks.Len(), c.World.Entities.Len())
		}
	}
}

