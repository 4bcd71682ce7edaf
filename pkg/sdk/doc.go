// Package wikirank provides an embeddable Go client for the wikirank
// article reports, backed by MongoDB, Redis, Valkey or a JSONL export.
//
//	client, _ := wikirank.New(ctx, wikirank.WithMongo("mongodb://localhost:27017", "cds502_wikirank"))
//	defer client.Close()
//
//	_, _ = client.EnsureIndexes(ctx)
//	_ = client.RunReports(ctx, wikirank.DefaultReportParams(), wikirank.FormatCSV, os.Stdout)
//
//	top, _ := client.Report(ctx, wikirank.ReportTopRanked, wikirank.ReportParams{Language: "de", TopLimit: 10})
//	for _, row := range top.Rows {
//	    fmt.Println(row["title"], row["quality"])
//	}
package wikirank
