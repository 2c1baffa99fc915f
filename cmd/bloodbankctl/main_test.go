package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"bloodbank/internal/adapters/httpapi"
	"bloodbank/internal/core"
	"bloodbank/pkg/client"
)

func startServer(t *testing.T) string {
	t.Helper()
	svc := core.NewInMemoryService()
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	srv := httptest.NewServer(httpapi.Router(httpapi.New(svc, nil, nil), nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestDonateRequestAndStock(t *testing.T) {
	addr := startServer(t)
	person := []string{"-first", "Lee", "-last", "Chan", "-dob", "1979-02-03", "-mobile", "0312", "-group", "AB+"}

	code, out, errOut := runCLI(t, append([]string{"-addr", addr, "donate"}, person...)...)
	if code != 0 {
		t.Fatalf("donate exit %d: %s", code, errOut)
	}
	var donation client.Donation
	if err := json.Unmarshal([]byte(out), &donation); err != nil {
		t.Fatalf("decode donation: %v\n%s", err, out)
	}
	if donation.Unit.BloodGroup != "AB+" {
		t.Fatalf("unexpected donation %+v", donation)
	}

	code, out, _ = runCLI(t, "-addr", addr, "stock")
	if code != 0 || !strings.Contains(out, "AB+") || !strings.Contains(out, "IN STOCK") {
		t.Fatalf("unexpected stock output %d:\n%s", code, out)
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "AB+" && fields[1] != "1" {
			t.Fatalf("expected one AB+ unit, got line %q", line)
		}
	}

	code, out, errOut = runCLI(t, append(append([]string{"-addr", addr, "request"}, person...), "-reason", "trauma")...)
	if code != 0 || !strings.Contains(out, `"outcome": "issued"`) {
		t.Fatalf("request exit %d: %s %s", code, out, errOut)
	}

	code, out, _ = runCLI(t, "-addr", addr, "waiting")
	if code != 0 || strings.TrimSpace(out) != "null" && strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty waiting list, got %d %q", code, out)
	}
}

func TestDeleteAndErrors(t *testing.T) {
	addr := startServer(t)

	code, _, errOut := runCLI(t, "-addr", addr, "delete-donor", "7")
	if code != 1 || !strings.Contains(errOut, "404") {
		t.Fatalf("expected not found failure, got %d %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "-addr", addr, "delete-recipient", "x"); code != 2 {
		t.Fatalf("expected usage error for bad id, got %d", code)
	}
	if code, _, _ := runCLI(t, "-addr", addr, "delete-recipient"); code != 2 {
		t.Fatalf("expected usage error for missing id, got %d", code)
	}
	if code, _, _ := runCLI(t, "-addr", addr, "transfuse"); code != 2 {
		t.Fatalf("expected usage error for unknown command, got %d", code)
	}
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("expected usage error without command, got %d", code)
	}
	code, out, _ := runCLI(t, "-addr", addr, "sweep")
	if code != 0 || strings.TrimSpace(out) != "[]" {
		t.Fatalf("unexpected sweep output %d %q", code, out)
	}
}
