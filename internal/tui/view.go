package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/truth-eroder/internal/game"
	"github.com/tatianab/truth-eroder/internal/models"
)

func (m model) View() string {
	var s string

	switch m.state {
	case stateChooseIdentity:
		var b strings.Builder
		b.WriteString(titleStyle.Render("真理侵蚀者") + "\n\n选择你的身份：\n\n")
		for i, id := range m.cfg.Deps.Catalog.Identities {
			fmt.Fprintf(&b, "%d. %s  意志 %d / 理智 %d\n   %s\n", i+1, id.Name, id.InitialResource, id.InitialSanity, id.Description)
		}
		s = b.String() + "\n" + m.textInput.View() + "\n" + m.status

	case stateLoading:
		s = m.viewport.View() + "\n\n  ……现实正在重写……\n"

	case statePlaying:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.textInput.View()+"  "+m.status,
			"\n"+helpStyle.Render(m.help()),
		)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) placeholder() string {
	if m.run == nil {
		return "输入身份编号..."
	}
	switch m.run.Phase {
	case game.PhaseMap:
		if m.run.Stranded() {
			return "无路可走，输入任意指令迎战领主"
		}
		return "w/a/s/d 移动"
	case game.PhaseCombat:
		return "输入字符或编号组成链，如 击斩 或 2 4"
	case game.PhaseReward:
		return "选择奖励编号，0 跳过"
	case game.PhaseDiscard:
		return "选择要丢弃的字符编号"
	case game.PhaseShop:
		return "购买编号，l 离开"
	case game.PhaseRest:
		return "r 休息，l 离开"
	case game.PhaseEvent:
		return "选择选项编号"
	}
	return "/restart 重新开始"
}

func (m model) help() string {
	return "Commands: /save [name], /restart, /quit"
}

func (m model) renderState() string {
	if m.run == nil {
		return ""
	}
	p := m.run.Player

	var b strings.Builder
	b.WriteString(titleStyle.Render(string(p.Region)) + fmt.Sprintf("  第 %d 日\n\n", p.Day))
	fmt.Fprintf(&b, "意志 %d/%d\n理智 %d/%d\n", p.Resource, p.MaxResource, p.Sanity, p.MaxSanity)
	if m.run.Phase == game.PhaseCombat {
		fmt.Fprintf(&b, "护盾 %d  焚烧 %d\n", p.Shield, p.Burn)
	}
	if len(p.Statuses) > 0 {
		b.WriteString(renderStatuses(p.Statuses) + "\n")
	}
	b.WriteString("\n" + titleStyle.Render("字符") + "\n")
	for i, w := range p.Inventory {
		fmt.Fprintf(&b, "%d.[%s] ", i+1, w.Text)
	}
	b.WriteString("\n")
	if len(p.Items) > 0 {
		b.WriteString("\n" + titleStyle.Render("遗物") + "\n")
		for _, it := range p.Items {
			b.WriteString("- " + it.Name + "\n")
		}
	}
	b.WriteString("\n" + m.renderPhase())

	width := int(float64(m.width) * 0.38)
	return stateStyle.Width(width).Height(m.viewport.Height).Render(b.String())
}

func (m model) renderPhase() string {
	r := m.run
	var b strings.Builder
	switch r.Phase {
	case game.PhaseMap:
		b.WriteString(titleStyle.Render("地图") + fmt.Sprintf("  危险 %d\n", r.Grid.Danger))
		b.WriteString(renderGrid(r.Grid))
		if r.Stranded() {
			b.WriteString(warnStyle.Render("四周已被揭开，区域领主正在逼近。") + "\n")
		}

	case game.PhaseCombat:
		e := r.Session.Enemy()
		b.WriteString(titleStyle.Render(e.Name) + "\n")
		fmt.Fprintf(&b, "存在 %d/%d\n修正 %d/%d\n", e.HP, e.MaxHP, e.Correction, e.MaxCorrection)
		if e.Burn > 0 {
			fmt.Fprintf(&b, "焚烧 %d\n", e.Burn)
		}
		if len(e.Statuses) > 0 {
			b.WriteString(renderStatuses(e.Statuses) + "\n")
		}
		fmt.Fprintf(&b, "\n意图：%s\n", e.Intent.Description)
		if e.Flavor != "" {
			b.WriteString("\n" + helpStyle.Render(e.Flavor) + "\n")
		}
		if r.Narration != "" {
			b.WriteString("\n" + helpStyle.Render(r.Narration) + "\n")
		}

	case game.PhaseReward:
		b.WriteString(titleStyle.Render("奖励") + "\n")
		b.WriteString(renderTokens(r.Reward, false))

	case game.PhaseDiscard:
		b.WriteString(warnStyle.Render(fmt.Sprintf("字符超过上限，需要丢弃 %d 个", len(r.Player.Inventory)-m.cfg.Options.InventoryCap)) + "\n")

	case game.PhaseShop:
		b.WriteString(titleStyle.Render("黑市") + "\n")
		b.WriteString(renderTokens(r.Shop, true))

	case game.PhaseRest:
		b.WriteString(titleStyle.Render("篝火") + "\n")

	case game.PhaseEvent:
		b.WriteString(titleStyle.Render(r.Event.Title) + "\n" + r.Event.Description + "\n\n")
		for i, opt := range r.Event.Options {
			line := fmt.Sprintf("%d. %s", i+1, opt.Label)
			if opt.RequiredGlyph != "" && !r.HasGlyph(opt.RequiredGlyph) {
				line = helpStyle.Render(line + " (缺少字符)")
			}
			b.WriteString(line + "\n")
		}

	case game.PhaseVictory:
		b.WriteString(titleStyle.Render("胜利") + "\n")
	case game.PhaseGameOver:
		b.WriteString(warnStyle.Render("定义消散") + "\n")
	}
	return b.String()
}

func renderTokens(ws []models.WordToken, priced bool) string {
	var b strings.Builder
	for i, w := range ws {
		fmt.Fprintf(&b, "%d. [%s] %s %d", i+1, w.Text, w.Category, w.Power)
		if priced {
			fmt.Fprintf(&b, "  ¥%d", w.Cost)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderStatuses(s models.Statuses) string {
	var parts []string
	for _, k := range s.Kinds() {
		parts = append(parts, fmt.Sprintf("%s×%d", k, s[k]))
	}
	return strings.Join(parts, " ")
}

var contentGlyph = map[models.Content]string{
	models.ContentShop:     "$",
	models.ContentRest:     "R",
	models.ContentEvent:    "?",
	models.ContentTreasure: "T",
	models.ContentRoller:   "~",
}

// renderGrid draws the map. Hidden cells show nothing about their contents.
func renderGrid(g models.Grid) string {
	var b strings.Builder
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			c := models.Coord{X: x, Y: y}
			n, _ := g.Node(c)
			cell := "·"
			switch {
			case c == g.Pos:
				cell = "@"
			case !n.Revealed:
			case n.Type == models.NodeMine:
				cell = "*"
			case contentGlyph[n.Content] != "":
				cell = contentGlyph[n.Content]
			case n.NeighborMines > 0:
				cell = fmt.Sprint(n.NeighborMines)
			default:
				cell = " "
			}
			b.WriteString(cell + " ")
		}
		b.WriteString("\n")
	}
	return b.String()
}
