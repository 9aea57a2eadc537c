// Package catalog holds the predefined goals and daily tasks offered to users.
package catalog

import (
	"slices"
	"strings"
)

type GoalCategory string

const (
	GoalHealth    GoalCategory = "Health"
	GoalEducation GoalCategory = "Education"
	GoalFinance   GoalCategory = "Finance"
	GoalPersonal  GoalCategory = "Personal"
)

var goalCategoryOrder = []GoalCategory{GoalHealth, GoalEducation, GoalFinance, GoalPersonal}

type TaskCategory string

const (
	TaskHealth       TaskCategory = "health"
	TaskGrowth       TaskCategory = "growth"
	TaskWellness     TaskCategory = "wellness"
	TaskProductivity TaskCategory = "productivity"
	TaskSocial       TaskCategory = "social"
)

var taskCategoryOrder = []TaskCategory{TaskHealth, TaskGrowth, TaskWellness, TaskProductivity, TaskSocial}

type Goal struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Category        GoalCategory `json:"category"`
	Icon            string       `json:"icon"`
	TimeframeMonths int          `json:"timeframe_months"`
}

type Task struct {
	Title    string       `json:"title"`
	Category TaskCategory `json:"category"`
	Icon     string       `json:"icon"`
}

var goals = map[GoalCategory][]Goal{
	GoalHealth: {
		{Title: "Run a Marathon", Description: "Train and complete a full marathon", Icon: "heart", TimeframeMonths: 12},
		{Title: "Improve Fitness", Description: "Exercise 4 times per week", Icon: "bike", TimeframeMonths: 3},
	},
	GoalEducation: {
		{Title: "Learn a New Language", Description: "Achieve B2 level proficiency", Icon: "brain", TimeframeMonths: 6},
		{Title: "Master Web Development", Description: "Build and deploy 3 full-stack applications", Icon: "smartphone", TimeframeMonths: 9},
		{Title: "Professional Certification", Description: "Obtain industry certification", Icon: "graduation-cap", TimeframeMonths: 4},
	},
	GoalFinance: {
		{Title: "Start a Side Business", Description: "Launch and generate first revenue", Icon: "briefcase", TimeframeMonths: 6},
		{Title: "Save for Down Payment", Description: "Save 20% for home purchase", Icon: "home", TimeframeMonths: 24},
	},
	GoalPersonal: {
		{Title: "Read 24 Books", Description: "Two books per month for personal growth", Icon: "book", TimeframeMonths: 12},
		{Title: "Travel to 3 Countries", Description: "Experience new cultures and places", Icon: "globe", TimeframeMonths: 12},
		{Title: "Learn an Instrument", Description: "Master basic piano skills", Icon: "music", TimeframeMonths: 6},
		{Title: "Start a Garden", Description: "Grow own vegetables and herbs", Icon: "leaf", TimeframeMonths: 6},
		{Title: "Morning Routine", Description: "Establish consistent morning habits", Icon: "coffee", TimeframeMonths: 1},
	},
}

var tasks = map[TaskCategory][]Task{
	TaskHealth: {
		{Title: "Stay Hydrated (2L)", Icon: "glass-water"},
		{Title: "Morning Exercise", Icon: "dumbbell"},
		{Title: "Morning Energizer Routine", Icon: "sun"},
		{Title: "Healthy Meal Prep", Icon: "utensils"},
	},
	TaskGrowth: {
		{Title: "Read Personal Growth Book", Icon: "book"},
		{Title: "Learn Something New", Icon: "sparkles"},
	},
	TaskWellness: {
		{Title: "Mindfulness Meditation", Icon: "brain"},
		{Title: "Evening Wind Down", Icon: "moon"},
		{Title: "Nature Walk", Icon: "leaf"},
		{Title: "Music & Relaxation", Icon: "music"},
	},
	TaskProductivity: {
		{Title: "Focus Work Session", Icon: "zap"},
	},
	TaskSocial: {
		{Title: "Connect with Loved Ones", Icon: "message-circle"},
	},
}

func ParseGoalCategory(s string) (GoalCategory, bool) {
	for _, c := range goalCategoryOrder {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

func ParseTaskCategory(s string) (TaskCategory, bool) {
	for _, c := range taskCategoryOrder {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Goals returns the goals of the given categories, or all of them when none
// are given, in a stable order.
func Goals(categories ...GoalCategory) []Goal {
	if len(categories) == 0 {
		categories = goalCategoryOrder
	}
	var out []Goal
	for _, c := range categories {
		for _, g := range goals[c] {
			g.Category = c
			out = append(out, g)
		}
	}
	return out
}

// Tasks is Goals for daily tasks.
func Tasks(categories ...TaskCategory) []Task {
	if len(categories) == 0 {
		categories = taskCategoryOrder
	}
	var out []Task
	for _, c := range categories {
		for _, t := range tasks[c] {
			t.Category = c
			out = append(out, t)
		}
	}
	return out
}

func GoalCategories() []GoalCategory { return slices.Clone(goalCategoryOrder) }
func TaskCategories() []TaskCategory { return slices.Clone(taskCategoryOrder) }
