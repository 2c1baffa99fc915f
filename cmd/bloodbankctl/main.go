// Command bloodbankctl drives a bloodbankd server from the shell.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"bloodbank/pkg/client"
	"bloodbank/pkg/domain"
)

var exitFunc = os.Exit

const usage = `usage: bloodbankctl [-addr URL] <command> [flags]

commands:
  stock                       in-stock units per blood group
  shortage                    pending requests per blood group
  expiring                    in-stock units close to expiry
  waiting                     pending recipients, oldest first
  donate  -first -last -dob -mobile -group
  request -first -last -dob -mobile -group [-reason]
  delete-donor <id>
  delete-recipient <id>
  sweep                       expire stale units now
`

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bloodbankctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	addr := fs.String("addr", envOr("BLOODBANK_URL", "http://localhost:8080"), "server base URL")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c := client.New(*addr)
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	var (
		out any
		err error
	)
	switch cmd {
	case "stock":
		err = printGroups(ctx, stdout, "IN STOCK", c.Stock)
	case "shortage":
		err = printGroups(ctx, stdout, "WAITING", c.Shortage)
	case "expiring":
		out, err = c.ExpiringUnits(ctx)
	case "waiting":
		out, err = c.Waiting(ctx)
	case "sweep":
		out, err = c.Sweep(ctx)
	case "donate", "request":
		p, code := parsePerson(cmd, rest, stderr)
		if code != 0 {
			return code
		}
		if cmd == "donate" {
			out, err = c.AddDonor(ctx, p)
		} else {
			out, err = c.RequestUnit(ctx, p)
		}
	case "delete-donor", "delete-recipient":
		if len(rest) != 1 {
			fmt.Fprintf(stderr, "%s takes exactly one id\n", cmd)
			return 2
		}
		id, convErr := strconv.Atoi(rest[0])
		if convErr != nil || id <= 0 {
			fmt.Fprintf(stderr, "invalid id %q\n", rest[0])
			return 2
		}
		if cmd == "delete-donor" {
			out, err = c.DeleteDonor(ctx, id)
		} else {
			out, err = c.DeleteRecipient(ctx, id)
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err == nil && out != nil {
		err = writeJSON(stdout, out)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func parsePerson(cmd string, args []string, stderr io.Writer) (client.Person, int) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var p client.Person
	fs.StringVar(&p.FirstName, "first", "", "first name")
	fs.StringVar(&p.LastName, "last", "", "last name")
	fs.StringVar(&p.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	fs.StringVar(&p.MobileNo, "mobile", "", "mobile number")
	fs.StringVar(&p.BloodGroup, "group", "", "blood group, e.g. O-")
	fs.StringVar(&p.Gender, "gender", "", "gender")
	fs.StringVar(&p.City, "city", "", "city")
	if cmd == "request" {
		fs.StringVar(&p.Reason, "reason", "", "reason for the transfusion")
	}
	if err := fs.Parse(args); err != nil {
		return client.Person{}, 2
	}
	return p, 0
}

func printGroups(ctx context.Context, w io.Writer, header string, fetch func(context.Context) (map[string]int, error)) error {
	counts, err := fetch(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "GROUP\t%s\n", header)
	for _, g := range domain.BloodGroups {
		fmt.Fprintf(tw, "%s\t%d\n", g, counts[g])
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
