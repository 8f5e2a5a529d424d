package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/club-controller/internal/logic"
	"github.com/sweeney/club-controller/internal/relay"
	"github.com/sweeney/club-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	// 26h3m0s reads as 1d2h3m0s
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		if days := d / (24 * time.Hour); days > 0 {
			return fmt.Sprintf("%dd%s", days, d-days*24*time.Hour)
		}
		return d.String()
	},
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
	"hex": func(b uint8) string {
		return fmt.Sprintf("0x%02x", b)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>{{with .Config.SiteName}}{{.}} - {{end}}Club Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.lamp { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 4px; background: #ddd; }
.lamp.red { background: red; }
.lamp.yellow { background: gold; }
.lamp.green { background: green; }
form { display: inline; }
</style>
</head>
<body>
<h1>{{with .Config.SiteName}}{{.}} - {{end}}Club Controller{{if not .Running}} <span class="warn">(stopped)</span>{{end}}</h1>

<h2>State</h2>
<table>
<tr><th>Power</th><td class="{{if .State.PowerOn}}on{{else}}off{{end}}">{{if .State.PowerOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Locked</th><td>{{yesno .State.ClubLocked}}</td></tr>
<tr><th>Closed</th><td>{{yesno .State.ClubIsClosed}}</td></tr>
<tr><th>Master off</th><td class="{{if .State.ClubOff}}warn{{end}}">{{yesno .State.ClubOff}}</td></tr>
<tr><th>Lamp</th><td><span class="lamp {{if .Lamp.Red}}red{{end}}"></span><span class="lamp {{if .Lamp.Yellow}}yellow{{end}}"></span><span class="lamp {{if .Lamp.Green}}green{{end}}"></span>{{.Lamp}}</td></tr>
{{if not .LastChange.IsZero}}<tr><th>Last change</th><td>{{.LastChange.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
</table>

<h2>Relays</h2>
<table>
<tr><th>Active</th><td>{{yesno .RelayActive}}</td></tr>
<tr><th>Address</th><td>{{hex .RelayAddress}}</td></tr>
<tr><th>Register</th><td>{{hex .Relays}}</td></tr>
</table>
{{if .Controls}}
<p>
<form method="post" action="/api/toggle-power"><button type="submit">Toggle power</button></form>
<form method="post" action="/api/set-relay"><button type="submit">Rewrite relays</button></form>
</p>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>Transport</th><td>{{.Config.Transport}}</td></tr>
<tr><th>Bus</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Topic}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Relay writes</th><td>{{.Counts.RelayWrites}}</td></tr>
<tr><th>Relay failures</th><td>{{.Counts.RelayFailures}}</td></tr>
<tr><th>Publishes</th><td>{{.Counts.Publishes}}</td></tr>
<tr><th>Publish errors</th><td>{{.Counts.PublishErrors}}</td></tr>
<tr><th>Sensor failures</th><td>{{.Counts.SensorFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Power on delay</th><td>{{.Config.PowerOnDelayMs}}ms</td></tr>
<tr><th>Power off delay</th><td>{{.Config.PowerOffDelayMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, controls bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Lamp     logic.Lamp
		Controls bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Lamp:     relay.Decode(snap.Relays).Lamp,
		Controls: controls,
	}
	indexTmpl.Execute(w, data)
}
