package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/upstream/mcping"
)

// handleMinecraft renders a Minecraft server's list-ping status as RPSL
// attributes. MINECRAFT and MC share this handler.
func (d *Dispatcher) handleMinecraft(ctx context.Context, q query.Query) (string, error) {
	host, port, err := mcping.ParseTarget(q.Payload)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "This is the WHOIS server response for Minecraft server query")
	comment(&b, "Information related to Minecraft server status")
	b.WriteString("%\n")

	status, err := mcping.Ping(ctx, host, port)
	if err != nil {
		field(&b, "server", fmt.Sprintf("%s:%d", host, port))
		field(&b, "status", "OFFLINE")
		return b.String(), nil
	}

	field(&b, "server", fmt.Sprintf("%s:%d", host, port))
	field(&b, "status", "ONLINE")
	field(&b, "version", status.VersionName)
	field(&b, "protocol", strconv.Itoa(status.ProtocolVersion))
	field(&b, "descr", strings.ReplaceAll(status.MOTD, "\n", " "))
	field(&b, "players-online", strconv.Itoa(status.PlayersOnline))
	field(&b, "players-max", strconv.Itoa(status.PlayersMax))
	field(&b, "latency", fmt.Sprintf("%dms", status.Latency.Milliseconds()))
	return b.String(), nil
}
