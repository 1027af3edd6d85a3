package main

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/smolage/gbones/caves"
	"github.com/smolage/gbones/core/types"
	"github.com/smolage/gbones/devground"
	"github.com/smolage/gbones/internal/stakeapi"
	"github.com/smolage/gbones/laborground"
	"github.com/smolage/gbones/params"
	"github.com/smolage/gbones/sysaction"
	"github.com/smolage/gbones/yard"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
)

var boneUnit = big.NewInt(params.Bone)

// formatBones renders a wei amount as decimal bones.
func formatBones(v *big.Int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(v), boneUnit, new(big.Int))
	s := whole.String()
	if frac.Sign() != 0 {
		fs := fmt.Sprintf("%018s", frac.String())
		s += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

func formatIDs(ids []uint64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

// formatBalances renders per-id balances where balances[i] belongs to id i+1.
func formatBalances(balances []uint64) string {
	var parts []string
	for i, n := range balances {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("#%d x%d", i+1, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func formatTime(ts uint64) string {
	return params.UnixToTime(ts).UTC().Format(time.RFC3339)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func printHead(w io.Writer, head *types.Header) {
	fmt.Fprintf(w, "block #%d %s at %s\n", head.Number, head.Hash().TerminalString(), formatTime(head.Time))
}

func printYard(w io.Writer, info *yard.Info) {
	titleColor.Fprintln(w, "Yard")
	table := newTable(w, "Total staked", "Threshold", "Status", "Days off")
	status := "off"
	if info.On {
		status = "on"
	}
	if info.OffSince != nil {
		status += " since " + formatTime(*info.OffSince)
	}
	table.Append([]string{
		formatBones(info.TotalStaked),
		formatBones(info.Threshold),
		status,
		strconv.FormatUint(info.DaysOff, 10),
	})
	table.Render()
}

func printHoldings(w io.Writer, h *stakeapi.Holdings) {
	titleColor.Fprintf(w, "Holdings of %s\n", h.Owner.Hex())
	table := newTable(w, "Asset", "Balance")
	table.Append([]string{"Bones", formatBones(h.Bones)})
	table.Append([]string{"Yard stake", formatBones(h.YardStake)})
	table.Append([]string{"Smols", formatIDs(h.Smols)})
	table.Append([]string{"Animals", formatIDs(h.Animals)})
	table.Append([]string{"Supplies", formatBalances(h.Supplies)})
	table.Append([]string{"Consumables", formatBalances(h.Consumables)})
	table.Render()
}

func printSmol(w io.Writer, s *stakeapi.Smol) {
	titleColor.Fprintf(w, "Smol #%d\n", s.ID)
	table := newTable(w, "Owner", "Common sense", "Mystics", "Farmers", "Fighters", "Facility")
	table.Append([]string{
		s.Owner.Hex(),
		strconv.FormatUint(s.CommonSense, 10),
		formatSkill(s.Skills[0]),
		formatSkill(s.Skills[1]),
		formatSkill(s.Skills[2]),
		s.Facility,
	})
	table.Render()
}

// formatSkill renders a skill value scaled by params.SkillPrecision.
func formatSkill(v *big.Int) string {
	if v == nil {
		return "0"
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(params.SkillPrecision))
	return f.Text('f', 4)
}

func printDevPositions(w io.Writer, infos []*devground.FeInfo) {
	titleColor.Fprintln(w, "Development Ground")
	table := newTable(w, "Smol", "Ground", "Lock (days)", "Days left", "Bones accrued", "Skill", "Bones staked")
	for _, info := range infos {
		table.Append([]string{
			strconv.FormatUint(info.TokenID, 10),
			info.Ground.String(),
			strconv.FormatUint(info.LockPeriod/params.Day, 10),
			strconv.FormatUint(info.TimeLeft, 10),
			formatBones(info.BonesAccrued),
			formatSkill(info.SkillLevel),
			formatBones(info.TotalBonesStaked),
		})
	}
	table.Render()
}

func printCavesPositions(w io.Writer, infos []*caves.FeInfo) {
	titleColor.Fprintln(w, "Caves")
	table := newTable(w, "Smol", "Lock left", "Reward")
	for _, info := range infos {
		table.Append([]string{
			strconv.FormatUint(info.StakedSmols, 10),
			(time.Duration(info.TimeLeft) * time.Second).String(),
			formatBones(info.Reward),
		})
	}
	table.Render()
}

func printLaborPositions(w io.Writer, infos []*laborground.FeInfo, catalog *laborground.Catalog) {
	titleColor.Fprintln(w, "Labor Ground")
	table := newTable(w, "Smol", "Job", "Supply", "Animal", "Next claim")
	for _, info := range infos {
		job := strconv.Itoa(int(info.Job))
		if catalog != nil && int(info.Job) < len(catalog.Jobs) {
			job = catalog.Jobs[info.Job].Name
		}
		animal := "-"
		if info.HasAnimal {
			animal = strconv.FormatUint(info.AnimalID, 10)
		}
		table.Append([]string{
			strconv.FormatUint(info.TokenID, 10),
			job,
			strconv.FormatUint(info.SupplyID, 10),
			animal,
			(time.Duration(info.TimeLeft) * time.Second).String(),
		})
	}
	table.Render()
}

func printEvents(w io.Writer, events []*sysaction.DecodedEvent) {
	table := newTable(w, "Block", "Event", "Owner", "Token", "Fields")
	for _, ev := range events {
		token := "-"
		if ev.TokenID != nil {
			token = strconv.FormatUint(*ev.TokenID, 10)
		}
		table.Append([]string{
			strconv.FormatUint(ev.BlockNumber, 10),
			ev.Name,
			ev.Owner.Hex(),
			token,
			string(ev.Fields),
		})
	}
	table.Render()
}

func printReceipt(w io.Writer, block *types.Block, receipt *types.Receipt) {
	if receipt.Failed() {
		failureColor.Fprintf(w, "transaction %s reverted: %s\n", receipt.TxHash.TerminalString(), receipt.Err)
	} else {
		successColor.Fprintf(w, "transaction %s succeeded\n", receipt.TxHash.TerminalString())
	}
	printHead(w, block.Header())
	if len(receipt.Logs) == 0 {
		return
	}
	events := make([]*sysaction.DecodedEvent, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		if ev, err := sysaction.DecodeLog(l); err == nil {
			events = append(events, ev)
		}
	}
	printEvents(w, events)
}
