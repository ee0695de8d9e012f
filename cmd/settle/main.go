// Package main settles a poker ledger exported as CSV, either a plain
// "name,cash_in,cash_out" sheet or a PokerNow ledger, and prints the result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/homegame/homegame/internal/domain/settlement"
)

func main() {
	var asJSON bool
	flag.BoolVar(&asJSON, "json", false, "print the payout as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: settle [-json] [ledger.csv]\n\nReads stdin when no file is given.\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	in := io.Reader(os.Stdin)
	if path := flag.Arg(0); path != "" {
		f, err := os.Open(path)
		if err != nil {
			pterm.Error.Printfln("open ledger: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, asJSON); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, asJSON bool) error {
	ledger, err := settlement.ReadLedgerCSV(in)
	if err != nil {
		return err
	}
	namer := settlement.NewNamer()
	for i := range ledger.Entries {
		ledger.Entries[i].Name = namer.Unique(ledger.Entries[i].Name)
	}
	payout, err := settlement.Calculate(ledger.Entries)
	if err != nil {
		return fmt.Errorf("settle: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payout)
	}
	return render(out, ledger.Description, payout)
}

func render(out io.Writer, description string, payout *settlement.Payout) error {
	if description != "" {
		pterm.DefaultSection.WithWriter(out).Println(description)
	}

	players := payout.Sorted()
	sort.SliceStable(players, func(i, j int) bool { return players[i].Net > players[j].Net })
	results := pterm.TableData{{"Rank", "Player", "In", "Out", "Net"}}
	for i, pl := range players {
		results = append(results, []string{
			humanize.Ordinal(i + 1),
			pl.DisplayName,
			settlement.FormatDollar(pl.CashIn),
			settlement.FormatDollar(pl.CashOut),
			settlement.FormatDollar(pl.Net),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(results).Render(); err != nil {
		return err
	}

	transfers := pterm.TableData{{"From", "To", "Amount"}}
	for _, t := range payout.Transfers() {
		transfers = append(transfers, []string{t.From, t.To, settlement.FormatDollar(t.Amount)})
	}
	if len(transfers) > 1 {
		if err := pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(transfers).Render(); err != nil {
			return err
		}
	}

	if !payout.Balanced() {
		pterm.Warning.WithWriter(out).Printfln("Ledger is off by %s; spread evenly across %s players.",
			settlement.FormatDollar(payout.Slippage), humanize.Comma(int64(len(payout.Players))))
	}
	return nil
}
