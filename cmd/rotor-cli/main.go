// rotor-cli queries a running rotor-server from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"rotor/pkg/rotor"
)

const version = "0.1.0"

const defaultServer = "http://localhost:8085"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rotor-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  pools      List instrument pools\n")
		fmt.Fprintf(os.Stderr, "  selection  Show today's rotation selection\n")
		fmt.Fprintf(os.Stderr, "  backtest   Run a historical backtest\n")
		fmt.Fprintf(os.Stderr, "  bias       Show the bias monitor table\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("rotor-cli %s\n", version)
	case "pools":
		err = runPools(ctx, os.Args[2:])
	case "selection":
		err = runSelection(ctx, os.Args[2:])
	case "backtest":
		err = runBacktest(ctx, os.Args[2:])
	case "bias":
		err = runBias(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serverFlag(fs *flag.FlagSet) *string {
	def := defaultServer
	if v := os.Getenv("ROTOR_SERVER"); v != "" {
		def = v
	}
	return fs.String("server", def, "rotor-server base URL")
}

func runPools(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pools", flag.ExitOnError)
	server := serverFlag(fs)
	fs.Parse(args)

	pools, err := rotor.NewClient(*server).Pools(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tINSTRUMENTS")
	for _, p := range pools {
		fmt.Fprintf(w, "%s\t%s\t%d\n", p.Key, p.Name, len(p.Instruments))
	}
	return w.Flush()
}

func runSelection(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("selection", flag.ExitOnError)
	server := serverFlag(fs)
	pool := fs.String("pool", "default", "pool key")
	momentum := fs.Int("momentum", 0, "momentum lookback days (0 = server default)")
	ma := fs.Int("ma", 0, "moving average window (0 = server default)")
	max := fs.Int("max", 0, "max positions (0 = server default)")
	fs.Parse(args)

	sel, err := rotor.NewClient(*server).Selection(ctx, rotor.Query{
		Pool: *pool, MomentumLookback: *momentum, MAWindow: *ma, MaxPositions: *max,
	})
	if err != nil {
		return err
	}

	fmt.Printf("pool %s  date %s  momentum %dd  ma %dd  max %d\n\n",
		sel.Pool, sel.Date, sel.Params.MomentumLookback, sel.Params.MAWindow, sel.Params.MaxPositions)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSYMBOL\tNAME\tCLOSE\tMA\tMOMENTUM\tTREND\tHELD")
	for i, c := range sel.Ranked {
		trend, held := "-", ""
		if c.AboveTrend {
			trend = "up"
		}
		if c.Selected {
			held = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%.3f\t%+.2f%%\t%s\t%s\n",
			i+1, c.Symbol, c.Name, c.Close, c.MovingAverage, c.Momentum*100, trend, held)
	}
	w.Flush()

	for _, e := range sel.Excluded {
		fmt.Printf("excluded %s: %s\n", e.Symbol, e.Reason)
	}
	return nil
}

func runBacktest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	server := serverFlag(fs)
	pool := fs.String("pool", "default", "pool key")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	momentum := fs.Int("momentum", 0, "momentum lookback days (0 = server default)")
	ma := fs.Int("ma", 0, "moving average window (0 = server default)")
	max := fs.Int("max", 0, "max positions (0 = server default)")
	trades := fs.Bool("trades", false, "print individual trades")
	fs.Parse(args)

	bt, err := rotor.NewClient(*server).Backtest(ctx, rotor.Query{
		Pool: *pool, Start: *start, End: *end,
		MomentumLookback: *momentum, MAWindow: *ma, MaxPositions: *max,
	})
	if err != nil {
		if rotor.IsInsufficientData(err) {
			return fmt.Errorf("not enough data to backtest: %w", err)
		}
		return err
	}

	first, last := bt.Dates[0], bt.Dates[len(bt.Dates)-1]
	fmt.Printf("pool %s  %s .. %s  (%d trading days)\n\n", bt.Pool, first, last, len(bt.Dates))
	fmt.Printf("  total return   %+.2f%%\n", bt.TotalReturn)
	fmt.Printf("  annual return  %+.2f%%\n", bt.AnnualReturn)
	fmt.Printf("  max drawdown   %.2f%%\n", bt.MaxDrawdown)
	fmt.Printf("  sharpe ratio   %.2f\n", bt.SharpeRatio)
	fmt.Printf("  trades         %d\n", bt.TradeCount)

	if *trades && len(bt.Trades) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tACTION\tSYMBOL\tNAME\tPRICE")
		for _, tr := range bt.Trades {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3f\n", tr.Date, tr.Action, tr.Symbol, tr.Name, tr.Price)
		}
		w.Flush()
	}

	for _, e := range bt.Excluded {
		fmt.Printf("excluded %s: %s\n", e.Symbol, e.Reason)
	}
	return nil
}

func runBias(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bias", flag.ExitOnError)
	server := serverFlag(fs)
	pool := fs.String("pool", "default", "pool key")
	fs.Parse(args)

	table, err := rotor.NewClient(*server).Bias(ctx, *pool)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tDATE\tCLOSE\tBIAS6\tBIAS12\tBIAS24\tTREND\tVERDICT")
	for _, row := range table.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%+.2f\t%+.2f\t%+.2f\t%s\t%s\n",
			row.Symbol, row.Name, row.Date, row.Close,
			row.Bias["6"], row.Bias["12"], row.Bias["24"], row.Trend, row.Verdict)
	}
	w.Flush()

	for _, e := range table.Excluded {
		fmt.Printf("excluded %s: %s\n", e.Symbol, e.Reason)
	}
	return nil
}
