// Package extract holds the field heuristics for each data source. Every
// selector and pattern list used against third-party markup lives here so
// layout drift is fixed in one place and tested against captured fixtures.
package extract
