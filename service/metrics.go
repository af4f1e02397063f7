package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageDescribe  = "describe"
	StageCompare   = "compare"
	StageReasoning = "reasoning"
	StageMatch     = "match"
	StageNarration = "narration"
	StageGallery   = "gallery"
)

var (
	stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_steps_total",
			Help: "Total number of processed coaching steps",
		},
		[]string{"result"},
	)
	stageDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_stage_degraded_total",
			Help: "Pipeline stages that fell back to a degraded value",
		},
		[]string{"stage"},
	)
	feedbackSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_feedback_source_total",
			Help: "Which reasoning tier (or the rescue payload) produced the accepted feedback",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(stepsTotal, stageDegraded, feedbackSource)
}
