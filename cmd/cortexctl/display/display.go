// Package display provides output formatting and display functions for cortexctl.
//
// This package handles all user-facing output including table and JSON
// rendering for nodes, readings, room analytics, personality state, and
// federation membership. Table output uses text/tabwriter for alignment and
// keeps sensor columns compact; JSON output is indented and stable for
// scripting.
//
// All display functions respect the global configuration for output format
// and verbosity while staying free of API and business logic.
package display

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/cortexhq/cortex/internal/analytics"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/dustin/go-humanize"
)

// printJSON encodes any payload as indented JSON on stdout.
func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logging.Error("Failed to encode JSON: %v", err)
		fmt.Println("Error encoding JSON output")
	}
}

// readingClock renders a stored timestamp as a wall clock time for tables.
func readingClock(tsUTC string) string {
	t, err := time.Parse(time.RFC3339Nano, tsUTC)
	if err != nil {
		return tsUTC
	}
	return t.Local().Format("15:04:05")
}

// ShowHubInfo displays the hub health summary together with its mood.
func ShowHubInfo(health *client.HubHealth, mood *client.Personality) {
	if config.Global.Output == "json" {
		printJSON(map[string]any{"health": health, "personality": mood})
		return
	}

	fmt.Printf("Hub status:  %s\n", health.Status)
	fmt.Printf("Version:     %s\n", health.Version)
	fmt.Printf("Uptime:      %s\n", health.Uptime)
	fmt.Printf("Readings:    %d stored\n", health.Readings)
	if mood != nil {
		fmt.Printf("Mood:        %s (alert sensitivity %.1f, theme %s)\n",
			mood.State, mood.Properties.AlertSensitivity, mood.Properties.Theme)
	}
}

// ShowNodes displays the node list in tabular or JSON format. Connected nodes
// sort before remembered ones, then by node ID.
func ShowNodes(nodes []client.Node) {
	if len(nodes) == 0 {
		if config.Global.Output == "json" {
			fmt.Println("[]")
		} else {
			fmt.Println("No nodes found")
		}
		return
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Connected != nodes[j].Connected {
			return nodes[i].Connected
		}
		return nodes[i].NodeID < nodes[j].NodeID
	})

	if config.Global.Output == "json" {
		printJSON(nodes)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if config.Global.Verbose {
		fmt.Fprintln(w, "ID\tNAME\tMAC\tRSSI\tLINK\tAGE\tFRAMES\tGAPS\tRESETS\tCRC ERR\tTEMP\tRH\tBATT")
	} else {
		fmt.Fprintln(w, "ID\tNAME\tMAC\tRSSI\tLINK\tTEMP\tRH\tBATT")
	}

	for _, node := range nodes {
		linkState := "down"
		age := "-"
		if node.Connected {
			linkState = "up"
			age = utils.FormatDuration(time.Since(node.ConnectedAt))
		}

		var temp, rh, batt *float64
		if node.Last != nil {
			temp, rh, batt = node.Last.TempC, node.Last.RHPct, node.Last.BatteryV
		}

		if config.Global.Verbose {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
				node.NodeID, node.LocalName, node.MAC, node.RSSI, linkState, age,
				node.Frames, node.Gaps, node.Resets, node.CRCErrors,
				utils.FormatMetric(temp), utils.FormatMetric(rh), utils.FormatMetric(batt))
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				node.NodeID, node.LocalName, node.MAC, node.RSSI, linkState,
				utils.FormatMetric(temp), utils.FormatMetric(rh), utils.FormatMetric(batt))
		}
	}
}

// ShowNodeDetail displays everything the hub knows about one node.
func ShowNodeDetail(node *client.Node) {
	if config.Global.Output == "json" {
		printJSON(node)
		return
	}

	fmt.Printf("Node ID:     %d\n", node.NodeID)
	if node.LocalName != "" {
		fmt.Printf("Local name:  %s\n", node.LocalName)
	}
	fmt.Printf("MAC:         %s\n", node.MAC)
	if node.Connected {
		fmt.Printf("Link:        up for %s (RSSI %d dBm)\n",
			utils.FormatDuration(time.Since(node.ConnectedAt)), node.RSSI)
		fmt.Printf("Frames:      %d received, %d gaps, %d resets, %d CRC errors\n",
			node.Frames, node.Gaps, node.Resets, node.CRCErrors)
	} else {
		fmt.Printf("Link:        down (remembered from readings)\n")
	}

	if node.Last == nil {
		fmt.Println("Last seen:   no readings yet")
		return
	}

	fmt.Printf("Last seen:   %s (seq %d)\n", readingClock(node.Last.TsUTC), node.Last.Seq)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, name := range packet.MetricNames {
		fmt.Fprintf(w, "%s\t%s\n", name, utils.FormatMetric(node.Last.Metric(name)))
	}
	if node.Last.LowBattery {
		fmt.Fprintln(w, "low_battery\ttrue")
	}
}

// ShowReadings displays telemetry readings in tabular or JSON format.
func ShowReadings(readings []*packet.Reading) {
	if len(readings) == 0 {
		if config.Global.Output == "json" {
			fmt.Println("[]")
		} else {
			fmt.Println("No readings found")
		}
		return
	}

	if config.Global.Output == "json" {
		printJSON(readings)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TIME\tNODE\tSEQ\tTEMP\tRH\tPRESS\tLUX\tACCEL\tSOUND\tBATT")
	for _, r := range readings {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			readingClock(r.TsUTC), r.NodeID, r.Seq,
			utils.FormatMetric(r.TempC), utils.FormatMetric(r.RHPct),
			utils.FormatMetric(r.PressureHPa), utils.FormatMetric(r.Lux),
			utils.FormatMetric(r.AccelG), utils.FormatMetric(r.SoundDBFS),
			utils.FormatMetric(r.BatteryV))
	}
}

// ShowOccupancy displays the room occupancy estimate.
func ShowOccupancy(occ *analytics.Occupancy) {
	if config.Global.Output == "json" {
		printJSON(occ)
		return
	}

	fmt.Printf("Occupancy:   %s\n", occ.State)
	fmt.Printf("Confidence:  %.0f%%\n", occ.Confidence*100)
	fmt.Printf("Source:      %s\n", occ.Source)
}

// ShowSpatial displays the fused room view per metric plus the temperature
// gradient when one is present.
func ShowSpatial(spatial *client.Spatial) {
	if config.Global.Output == "json" {
		printJSON(spatial)
		return
	}

	if spatial.Nodes == 0 {
		fmt.Println("No nodes reporting")
		return
	}

	fmt.Printf("Fused view across %d node(s)\n\n", spatial.Nodes)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\tSPREAD\tSOURCES")
	for _, name := range packet.MetricNames {
		est, ok := spatial.Fused[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%d\n", est.Metric, est.Value, est.Spread, est.Sources)
	}
	w.Flush()

	if spatial.Gradient != nil {
		fmt.Printf("\nTemperature gradient: node %d is %.1f°C warmer than node %d\n",
			spatial.Gradient.WarmNodeID, spatial.Gradient.DeltaC, spatial.Gradient.CoolNodeID)
	}
}

// ShowForecast displays a metric forecast with its confidence band.
func ShowForecast(result *client.ForecastResult) {
	if config.Global.Output == "json" {
		printJSON(result)
		return
	}

	fmt.Printf("Forecast for node %d, %s, %.0f minutes ahead (%d samples)\n",
		result.NodeID, result.Metric, result.HorizonMinutes, result.Samples)
	fmt.Printf("Prediction:  %.2f (95%% band %.2f to %.2f)\n",
		result.Forecast.Prediction, result.Forecast.Lower, result.Forecast.Upper)
	fmt.Printf("Trend:       %+.4f per minute\n", result.Forecast.SlopePerS*60)
	if result.Forecast.Threshold != nil {
		fmt.Printf("Threshold:   %.2f reached in about %.0f minutes\n",
			result.Forecast.Threshold.Threshold, result.Forecast.Threshold.Minutes)
	}
}

// ShowPersonality displays the hub mood state.
func ShowPersonality(mood *client.Personality) {
	if config.Global.Output == "json" {
		printJSON(mood)
		return
	}

	fmt.Printf("State:             %s\n", mood.State)
	fmt.Printf("Alert sensitivity: %.1f\n", mood.Properties.AlertSensitivity)
	fmt.Printf("Theme:             %s\n", mood.Properties.Theme)
}

// ShowCalibrations displays stored per-node offsets.
func ShowCalibrations(cals []client.Calibration) {
	if len(cals) == 0 {
		if config.Global.Output == "json" {
			fmt.Println("[]")
		} else {
			fmt.Println("No calibration offsets stored")
		}
		return
	}

	sort.Slice(cals, func(i, j int) bool { return cals[i].NodeID < cals[j].NodeID })

	if config.Global.Output == "json" {
		printJSON(cals)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NODE\tTEMP OFFSET\tRH OFFSET\tPRESS OFFSET\tUPDATED")
	for _, cal := range cals {
		updated := cal.UpdatedUTC
		if t, err := time.Parse(time.RFC3339Nano, cal.UpdatedUTC); err == nil {
			updated = humanize.Time(t)
		}
		fmt.Fprintf(w, "%d\t%+.3f\t%+.3f\t%+.3f\t%s\n",
			cal.NodeID, cal.TempOffset, cal.RHOffset, cal.PressureOffset, updated)
	}
}

// ShowHubs displays the federation member list.
func ShowHubs(list *client.HubList) {
	if config.Global.Output == "json" {
		printJSON(list)
		return
	}

	if !list.Federated || list.Count == 0 {
		fmt.Println("Not federated - this hub runs solo")
		return
	}

	hubs := make([]client.Hub, len(list.Hubs))
	copy(hubs, list.Hubs)
	sort.Slice(hubs, func(i, j int) bool { return hubs[i].Name < hubs[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tSTATUS\tLAST SEEN")
	for _, hub := range hubs {
		fmt.Fprintf(w, "%s\t%s\t%s:%d\t%s\t%s\n",
			hub.ID, hub.Name, hub.Addr, hub.Port, hub.StatusString(), humanize.Time(hub.LastSeen))
	}
}
