// metrics.go — доменные Prometheus-метрики сервисного слоя.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// loginAttemptsTotal — попытки входа по исходу (ok, csrf, bootstrap, invalid, locked).
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "im_admin_login_attempts_total",
			Help: "Попытки входа в админ-панель по исходу",
		},
		[]string{"outcome"},
	)

	// accountLocksTotal — сколько раз ставилась блокировка учётной записи.
	accountLocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "im_admin_account_locks_total",
			Help: "Количество блокировок учётных записей после неудачных попыток",
		},
	)

	// intakeSubmissionsTotal — анкеты по результату приёма (stored, invalid, spam, error).
	intakeSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "im_intake_submissions_total",
			Help: "Принятые и отклонённые анкеты пациентов",
		},
		[]string{"result"},
	)

	// intakeDecryptFailuresTotal — ошибки расшифровки анкет при просмотре.
	intakeDecryptFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "im_intake_decrypt_failures_total",
			Help: "Ошибки расшифровки сохранённых анкет",
		},
	)
)
