package handlers

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/cortexhq/cortex/internal/identity"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/names"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/spf13/cobra"
)

// HandleReplay opens a node link to a hub and replays captured telemetry
// frames from a file. Frames go out byte-for-byte as captured, so corrupted
// captures exercise the hub's CRC handling.
func HandleReplay(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	frames, err := loadCapture(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("capture file %s contains no frames", args[0])
	}

	id, err := replayIdentity(frames)
	if err != nil {
		return err
	}

	mac, err := parseMAC(config.Replay.MAC)
	if err != nil {
		return err
	}

	if config.Replay.RSSI < -127 || config.Replay.RSSI > 0 {
		return fmt.Errorf("RSSI must be between -127 and 0 dBm")
	}

	client, err := link.Dial(config.Replay.LinkAddr, id, mac, int8(config.Replay.RSSI))
	if err != nil {
		return err
	}
	defer client.Close()

	interval := time.Duration(config.Replay.Interval) * time.Millisecond
	sent := 0
	for _, frame := range frames {
		if err := client.SendRaw(frame); err != nil {
			return fmt.Errorf("replay stopped after %d frame(s): %w", sent, err)
		}
		sent++
		if interval > 0 && sent < len(frames) {
			time.Sleep(interval)
		}
	}

	fmt.Printf("Replayed %d frame(s) as node %d to %s\n", sent, id.NodeID, config.Replay.LinkAddr)
	return nil
}

// loadCapture reads hex-encoded frames from a capture file, one per line.
// Blank lines and '#' comments are skipped; a malformed line is an error
// rather than a silent drop, since a bad capture should not half-replay.
func loadCapture(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	var frames [][]byte
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		frame, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: not valid hex: %w", lineNo, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}

	return frames, nil
}

// replayIdentity derives the node identity from the first intact frame in the
// capture, with the local name coming from the --name flag or a generated
// vanity name.
func replayIdentity(frames [][]byte) (identity.Identity, error) {
	name := config.Replay.Name
	if name == "" {
		name = names.Generate()
	}

	for _, frame := range frames {
		pkt, err := packet.Decode(frame)
		if err != nil {
			continue
		}
		return identity.New(pkt.NodeID, name)
	}

	return identity.Identity{}, fmt.Errorf("capture contains no intact frames to identify the node")
}

// parseMAC parses a MAC flag value into the 6-byte wire form.
func parseMAC(raw string) ([6]byte, error) {
	var mac [6]byte

	hw, err := net.ParseMAC(raw)
	if err != nil || len(hw) != 6 {
		return mac, fmt.Errorf("MAC must be a 6-byte hardware address like 02:00:00:00:00:01")
	}

	copy(mac[:], hw)
	return mac, nil
}
