package snapshot

import (
	"time"

	"github.com/codegraphd/codegraphd/internal/cluster"
)

// supergraphDoc is the spec §6 super-graph artifact shape:
// {clusters: {id -> summary, file list}, edges: [...], metadata: {...}}.
type supergraphDoc struct {
	Clusters map[string]clusterSummaryDoc `json:"clusters"`
	Edges    []edgeDoc                    `json:"edges"`
	Metadata metadataDoc                  `json:"metadata"`
}

type clusterSummaryDoc struct {
	Files        []string `json:"files"`
	MemberCount  int      `json:"member_count"`
	EstimatedLOC int      `json:"estimated_loc"`
	Languages    []string `json:"languages"`
	KeyFiles     []string `json:"key_files"`
	Description  string   `json:"description"`
}

type edgeDoc struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

type metadataDoc struct {
	TotalFiles       int     `json:"total_files"`
	TotalClusters    int     `json:"total_clusters"`
	CompressionRatio float64 `json:"compression_ratio"`
	Timestamp        string  `json:"timestamp"`
	Strategy         string  `json:"strategy"`
}

func (w *Writer) writeSupergraph(res cluster.Result) error {
	doc := supergraphDoc{
		Clusters: map[string]clusterSummaryDoc{},
	}
	totalFiles := 0
	for _, c := range res.Clusters {
		files := c.MemberPaths
		totalFiles += len(files)
		doc.Clusters[c.ID] = clusterSummaryDoc{
			Files:        files,
			MemberCount:  c.MemberCount,
			EstimatedLOC: c.EstimatedLOC,
			Languages:    c.Languages,
			KeyFiles:     c.KeyFiles,
			Description:  c.Description,
		}
	}
	for _, e := range res.SuperEdges {
		doc.Edges = append(doc.Edges, edgeDoc{From: e.From, To: e.To, Weight: e.Weight})
	}

	ratio := 1.0
	if n := len(res.Clusters); n > 0 && totalFiles > 0 {
		ratio = float64(totalFiles) / float64(n)
	}
	doc.Metadata = metadataDoc{
		TotalFiles:       totalFiles,
		TotalClusters:    len(res.Clusters),
		CompressionRatio: ratio,
		Timestamp:        timeNow().UTC().Format(time.RFC3339),
		Strategy:         res.Strategy,
	}
	return atomicWriteJSON(w.supergraphPath(), doc)
}

func (w *Writer) writeClusterMembership(res cluster.Result) error {
	for _, c := range res.Clusters {
		doc := struct {
			ID      string            `json:"id"`
			Files   []string          `json:"files"`
			Summary clusterSummaryDoc `json:"summary"`
		}{
			ID:    c.ID,
			Files: c.MemberPaths,
			Summary: clusterSummaryDoc{
				MemberCount:  c.MemberCount,
				EstimatedLOC: c.EstimatedLOC,
				Languages:    c.Languages,
				KeyFiles:     c.KeyFiles,
				Description:  c.Description,
			},
		}
		if err := atomicWriteJSON(w.clusterPath(c.ID), doc); err != nil {
			return err
		}
	}
	return nil
}

var timeNow = time.Now
