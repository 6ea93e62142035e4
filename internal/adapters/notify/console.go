package notify

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// Console implementa ports.Notifier sobre stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resultado coordinado en el modo configurado.
func (c *Console) Notify(_ context.Context, result domain.CoordinatedResult, stats domain.AggregateStats) error {
	if c.table {
		c.printFull(result, stats)
	} else {
		c.printCompact(result, stats)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(result domain.CoordinatedResult, stats domain.AggregateStats) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s → %d/%d ok profit %s",
		now, result.Kind, result.Succeeded(), len(domain.AllChildKinds), fmtWei(result.TotalProfit()))

	for _, kind := range domain.AllChildKinds {
		r := result.Results[kind]
		flag := "x"
		if r.Success {
			flag = "+"
		}
		fmt.Fprintf(&sb, " | %s[%s]%s", shortKind(kind), flag, fmtWei(r.Profit))
	}
	fmt.Fprintf(&sb, " | cap %s rate %d%%", fmtWei(stats.TotalCapital), stats.CombinedRate)

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla por familia más la fila agregada.
func (c *Console) printFull(result domain.CoordinatedResult, stats domain.AggregateStats) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %s — %d/%d children ok\n",
		now, result.Kind, result.Succeeded(), len(domain.AllChildKinds))

	table := tablewriter.NewWriter(c.out)
	table.Header("Family", "Capital", "Ops", "Wins", "Rate", "Bots", "Batch", "Profit")

	appendStrike := func(kind domain.ChildKind, s domain.StrikeStats) {
		r := result.Results[kind]
		table.Append(
			kind.String(),
			fmtWei(s.TotalCapital),
			fmt.Sprintf("%d", s.TotalStrikes),
			fmt.Sprintf("%d", s.SuccessfulStrikes),
			fmt.Sprintf("%d%%", s.WinRate),
			fmt.Sprintf("%d", s.NumBots),
			batchFlag(r),
			fmtWei(r.Profit),
		)
	}
	appendStrike(domain.ChildLongStrike, stats.Long)
	appendStrike(domain.ChildShortStrike, stats.Short)

	ammResult := result.Results[domain.ChildAMM]
	table.Append(
		domain.ChildAMM.String(),
		fmtWei(stats.AMM.TotalCapital),
		fmt.Sprintf("%d", stats.AMM.TotalArbitrages),
		fmt.Sprintf("%d", stats.AMM.SuccessfulArbitrages),
		fmt.Sprintf("%d%%", stats.AMM.SuccessRate),
		"-",
		batchFlag(ammResult),
		fmtWei(ammResult.Profit),
	)

	table.Append(
		"TOTAL",
		fmtWei(stats.TotalCapital),
		"", "",
		fmt.Sprintf("%d%%", stats.CombinedRate),
		fmt.Sprintf("%d", stats.TotalBots),
		"",
		fmtWei(result.TotalProfit()),
	)
	table.Render()
}

func batchFlag(r domain.OperationResult) string {
	if r.Success {
		return "OK"
	}
	return "--"
}

func shortKind(k domain.ChildKind) string {
	switch k {
	case domain.ChildLongStrike:
		return "L"
	case domain.ChildShortStrike:
		return "S"
	default:
		return "A"
	}
}

var weiPerEth = new(big.Float).SetFloat64(1e18)

// fmtWei convierte wei a una representación en ETH con 4 decimales.
func fmtWei(wei *big.Int) string {
	if wei == nil {
		return "0.0000"
	}
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEth).Float64()
	return fmt.Sprintf("%.4f", out)
}
