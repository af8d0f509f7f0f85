package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/oven-control/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Oven Control</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.fault { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; padding: 6px 12px; }
</style>
</head>
<body>
<h1>Oven Control</h1>

<h2>State</h2>
<table>
<tr><th>State</th><td class="{{if .Control.IgnitionLockout}}fault{{else if .Control.GasOn}}on{{else}}off{{end}}">{{stateOrUnknown (printf "%s" .Control.State)}}</td></tr>
<tr><th>Temperature</th><td>{{printf "%.1f" .Control.TemperatureC}} &deg;C</td></tr>
<tr><th>Gas Valve</th><td class="{{if .Control.GasOn}}on{{else}}off{{end}}">{{onOff .Control.GasOn}}</td></tr>
<tr><th>Igniter</th><td class="{{if .Control.IgniterOn}}on{{else}}off{{end}}">{{onOff .Control.IgniterOn}}</td></tr>
<tr><th>Door</th><td>{{if .Control.DoorOpen}}OPEN{{else}}closed{{end}}</td></tr>
<tr><th>Ignition Attempt</th><td>{{.Control.IgnitionAttempt}}</td></tr>
</table>

<h2>Sensor</h2>
<table>
<tr><th>Vref</th><td>{{printf "%.3f" .Control.VrefVolts}} V{{if .Control.VrefFault}} <span class="fault">FAULT</span>{{end}}</td></tr>
<tr><th>Signal</th><td>{{printf "%.3f" .Control.SignalVolts}} V{{if .Control.SignalFault}} <span class="fault">FAULT</span>{{end}}</td></tr>
<tr><th>Sensor Fault</th><td>{{if .Control.SensorFault}}<span class="fault">LATCHED</span>{{else}}none{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Filter Window</th><td>{{.Config.FilterWindow}}</td></tr>
<tr><th>Flame Detect</th><td>{{if .Config.FlameDetect}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

{{if .Control.IgnitionLockout}}
<form method="POST" action="/lockout/reset">
<button type="submit">Reset Lockout</button>
</form>
{{end}}

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
