// Package dayzlog ingests DayZ server ADM logs and turns them into
// structured events and per-player online-time statistics.
//
// This package allows you to:
//   - Classify server log lines into connect, disconnect, kick and
//     restart events
//   - Reconstruct absolute timestamps from the HH:MM:SS-only prefixes
//     the server writes, including day rollovers
//   - Track per-player sessions and aggregate per-day online time
//   - Stream live events from a growing log file
//   - Define custom line classifiers via YAML patterns or wasm plugins
//
// # Collecting statistics
//
// The Collector polls the log file and maintains session state and
// statistics:
//
//	collector, err := dayzlog.NewCollector(
//	    dayzlog.WithLogDir("/srv/dayz/profiles"),
//	    dayzlog.WithStore(store),
//	    dayzlog.WithOnStatsChanged(func() { fmt.Println("stats updated") }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer collector.Close()
//
//	go collector.Run(ctx)
//	// ...
//	for _, s := range collector.Summaries() {
//	    fmt.Printf("%s: %v total\n", s.Player.Name, s.Total)
//	}
//
// # Streaming events
//
// The Watcher emits each event on a channel as the line is written:
//
//	events, errs, err := dayzlog.WatchWithOptions(ctx,
//	    dayzlog.WithIncludeKinds(event.Connected, event.Disconnected),
//	)
//
// # One-shot parsing
//
// To process an existing log file without tailing:
//
//	events, err := dayzlog.ParseFile(ctx, "DayZServer_x64.ADM")
//	agg := dayzlog.ComputeStats(events)
//
// # Custom classifiers
//
// Implement the [Classifier] interface to extend line recognition, or
// combine several with [Chain]. The pattern subpackage loads regex
// classifiers from YAML files; the internal wasm runtime loads compiled
// plugins.
package dayzlog
