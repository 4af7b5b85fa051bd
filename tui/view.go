package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/inventory"
)

type (
	loadingMsg       struct{}
	pageMsg          inventory.Rendering
	searchErrorMsg   string
	noticeMsg        string
	filterOptionsMsg catalog.FilterOptions
	statisticsMsg    catalog.Statistics
	resetControlsMsg inventory.QueryState
	recordMsg        catalog.Medicine
	editFormMsg      inventory.EditForm
)

// ProgramView forwards controller output to a running bubbletea program
// as messages. Output sent before Attach is dropped.
type ProgramView struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// Attach starts forwarding to p.
func (v *ProgramView) Attach(p *tea.Program) {
	v.attachFunc(p.Send)
}

func (v *ProgramView) attachFunc(send func(tea.Msg)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.send = send
}

func (v *ProgramView) dispatch(msg tea.Msg) {
	v.mu.RLock()
	send := v.send
	v.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (v *ProgramView) ShowLoading()                         { v.dispatch(loadingMsg{}) }
func (v *ProgramView) RenderPage(r inventory.Rendering)     { v.dispatch(pageMsg(r)) }
func (v *ProgramView) ShowError(message string)             { v.dispatch(searchErrorMsg(message)) }
func (v *ProgramView) ShowNotice(message string)            { v.dispatch(noticeMsg(message)) }
func (v *ProgramView) ResetControls(s inventory.QueryState) { v.dispatch(resetControlsMsg(s)) }
func (v *ProgramView) ShowRecord(m catalog.Medicine)        { v.dispatch(recordMsg(m)) }
func (v *ProgramView) ShowEditForm(f inventory.EditForm)    { v.dispatch(editFormMsg(f)) }

func (v *ProgramView) SetFilterOptions(opts catalog.FilterOptions) {
	v.dispatch(filterOptionsMsg(opts))
}

func (v *ProgramView) SetStatistics(stats catalog.Statistics) {
	v.dispatch(statisticsMsg(stats))
}
