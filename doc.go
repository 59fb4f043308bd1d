// Package returns computes money-weighted rates of return for a personal
// portfolio. It is designed to be local-first and auditable: every number a
// report shows can be traced back to a plain-text ledger.
//
// The core functionalities include:
//   - Ledger Management: Recording financial transactions (buys, sells,
//     dividends, interest with employer matching, write-downs) in a
//     chronological record with per-kind validation.
//   - Valuation Walker: Replaying the ledger into valuation checkpoints on a
//     twice-monthly schedule (the 15th and the last day of each month), per
//     security and per account, resumable from a watermark.
//   - IRR Solver: A damped Newton-Raphson solver for the annualized internal
//     rate of return of an arbitrary cashflow series.
//   - Performance Aggregation: Turning checkpoint series into rates over the
//     standard windows (year to date, trailing year, trailing five years, all
//     time), segmented by asset class, compared against an inflation index.
//   - Data Persistence: Encoding and decoding all books to human-readable,
//     version-controllable JSONL files.
//
// This package serves as the foundational logic for the `rcs` command-line
// tool.
package returns
