// Package stateupdater keeps tracked remote values fresh by issuing
// GroupValueRead telegrams on a per-value schedule: read once on
// connect, read periodically, read only after a period of silence, or
// never. Reads are funnelled through a caller-supplied sender so they
// respect the outbound rate limit.
package stateupdater
