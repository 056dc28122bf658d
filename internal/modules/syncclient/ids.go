package syncclient

import "github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"

func goalIDOf(raw string) domain.GoalId { return domain.GoalId(raw) }

func instrumentCodeOf(raw string) domain.InstrumentCode { return domain.InstrumentCode(raw) }
