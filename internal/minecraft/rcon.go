package minecraft

import (
	"fmt"
	"time"

	"github.com/gorcon/rcon"
	"github.com/rs/zerolog/log"
)

// SaveGuard toggles world autosaving on a running Minecraft server over RCON
// so a backup reads a settled world directory instead of one the server is
// actively flushing to.
type SaveGuard struct {
	addr     string
	password string
}

// NewSaveGuard creates a SaveGuard for the given RCON endpoint. An empty
// address produces a guard that is simply disabled.
func NewSaveGuard(addr, password string) *SaveGuard {
	return &SaveGuard{addr: addr, password: password}
}

// Enabled reports whether an RCON endpoint is configured at all.
func (g *SaveGuard) Enabled() bool {
	return g != nil && g.addr != ""
}

// Suspend turns autosaving off and forces a full flush to disk.
func (g *SaveGuard) Suspend() error {
	if _, err := g.execute("save-off"); err != nil {
		return err
	}
	_, err := g.execute("save-all flush")
	return err
}

// Resume re-enables autosaving after a backup.
func (g *SaveGuard) Resume() error {
	_, err := g.execute("save-on")
	return err
}

func (g *SaveGuard) execute(command string) (string, error) {
	var conn *rcon.Conn
	var dialErr error

	// The server can report ready before RCON accepts connections, so retry
	// a few times before giving up.
	for i := 0; i < 3; i++ {
		conn, dialErr = rcon.Dial(g.addr, g.password)
		if dialErr == nil {
			break
		}
		log.Warn().Err(dialErr).Str("addr", g.addr).Int("attempt", i+1).Msg("RCON connection attempt failed, retrying...")
		time.Sleep(2 * time.Second)
	}
	if dialErr != nil {
		return "", fmt.Errorf("could not connect via rcon after multiple attempts: %w", dialErr)
	}
	defer conn.Close()

	response, err := conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("rcon command failed: %w", err)
	}

	log.Info().Str("command", command).Str("response", response).Msg("RCON command executed")
	return response, nil
}
