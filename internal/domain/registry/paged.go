package registry

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
)

// loadContentPaged loads rec's content pages in index order, one page per
// loop turn. Starting a new load for the same record abandons the old one.
func (m *Manager) loadContentPaged(rec *catalog.Record) {
	gen := m.pageLoads[rec] + 1
	m.pageLoads[rec] = gen

	start, count := rec.PageStart, rec.PageCount
	big := count > m.threshold

	var step func(page int)
	step = func(page int) {
		if m.pageLoads[rec] != gen {
			m.log.Debug("Paged load superseded", zap.String("id", rec.ID), zap.Int("page", page))
			return
		}
		if page >= start+count {
			m.finishPaged(rec, big)
			return
		}

		m.loader.LoadPage(rec, page)
		if page == start && big {
			m.queue.Show(cardsMessage(MsgCardsLoading, rec.Name))
		}
		m.loop.Post(func() { step(page + 1) })
	}
	m.loop.Post(func() { step(start) })
}

func (m *Manager) finishPaged(rec *catalog.Record, big bool) {
	delete(m.pageLoads, rec)
	if !rec.Healthy() {
		m.report(MsgLoadError + rec.Error())
		return
	}
	m.log.Debug("Loaded cards", zap.String("id", rec.ID), zap.Int("cards", rec.CardCount))
	if big {
		m.queue.Show(cardsMessage(MsgCardsLoaded, rec.Name))
	}
}
