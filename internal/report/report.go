// Package report renders relevant transactions as the plain-text digest and its email subject.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rewired-gh/rosterwatch/internal/models"
)

// maxSubjectTeams is how many team names the subject line spells out.
const maxSubjectTeams = 3

// Format renders records grouped by team. Teams are listed alphabetically and each team's records
// newest first; records on the same day keep their input order.
func Format(records []models.TransactionRecord, opponents models.OpponentSet) string {
	if len(records) == 0 {
		return fmt.Sprintf("No new transactions for upcoming opponents (%s) since last check.",
			strings.Join(opponents.Sorted(), ", "))
	}

	byTeam := make(map[string][]models.TransactionRecord)
	for _, r := range records {
		byTeam[r.Team] = append(byTeam[r.Team], r)
	}

	var b strings.Builder
	b.WriteString("Transaction updates since last check:\n\n")
	for _, team := range sortedTeams(byTeam) {
		teamRecords := byTeam[team]
		sort.SliceStable(teamRecords, func(i, j int) bool {
			return teamRecords[i].Date.After(teamRecords[j].Date)
		})

		fmt.Fprintf(&b, "%s:\n", team)
		for _, r := range teamRecords {
			fmt.Fprintf(&b, "  %s: %s\n", r.Date, FormatDetails(r.Details))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Subject builds "[Team A, Team B, Team C +N more] TRANSACTION UPDATE".
func Subject(records []models.TransactionRecord) string {
	seen := make(map[string][]models.TransactionRecord)
	for _, r := range records {
		seen[r.Team] = nil
	}
	teams := sortedTeams(seen)
	if len(teams) == 0 {
		return "TRANSACTION UPDATE"
	}

	label := strings.Join(teams, ", ")
	if len(teams) > maxSubjectTeams {
		label = strings.Join(teams[:maxSubjectTeams], ", ") + fmt.Sprintf(" +%d more", len(teams)-maxSubjectTeams)
	}
	return fmt.Sprintf("[%s] TRANSACTION UPDATE", label)
}

func sortedTeams(byTeam map[string][]models.TransactionRecord) []string {
	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}
