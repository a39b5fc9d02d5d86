// Package pipeline orchestrates one trackersync run: fetch and aggregate the
// configured sources, probe and rank the endpoints, then publish the
// artifacts in strict sequence. The primary tracker list publishes first and
// its failure aborts the run; the best-subset and README steps are best
// effort and only warn.
package pipeline
