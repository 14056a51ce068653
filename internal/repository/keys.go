package repository

import (
	"strings"
)

// Key prefixes of the persisted entities.
const (
	prefixCourse     = "course:"
	prefixLesson     = "lesson:"
	prefixUser       = "user:"
	prefixOrder      = "order:"
	prefixEnrollment = "enrollment:"
	prefixPromo      = "promo:"
	prefixProgress   = "progress:"
	prefixFeedback   = "feedback:"
	prefixContact    = "contact:"
)

func courseKey(id string) string { return prefixCourse + id }

// Lesson IDs carry their course ID, so the key doubles as a course scan target.
func lessonKey(id string) string { return prefixLesson + id }

func courseLessonsPrefix(courseID string) string { return prefixLesson + courseID + ":" }

func userKey(id string) string { return prefixUser + id }

func userOrdersPrefix(userID string) string { return prefixOrder + userID + ":" }

func userCourseOrdersPrefix(userID, courseID string) string {
	return prefixOrder + userID + ":" + courseID + ":"
}

func enrollmentKey(userID, courseID string) string {
	return prefixEnrollment + userID + ":" + courseID
}

func userEnrollmentsPrefix(userID string) string { return prefixEnrollment + userID + ":" }

func promoKey(code string) string { return prefixPromo + code }

func progressKey(userID, courseID, lessonID string) string {
	return prefixProgress + userID + ":" + courseID + ":" + lessonID
}

func userCourseProgressPrefix(userID, courseID string) string {
	return prefixProgress + userID + ":" + courseID + ":"
}

func feedbackKey(id string) string { return prefixFeedback + id }

func contactKey(id string) string { return prefixContact + id }

// OrderKey builds the ID of a new order. The timestamp keeps keys of the
// same user and course distinct and roughly time ordered.
func OrderKey(userID, courseID string, unixNano int64) string {
	return userCourseOrdersPrefix(userID, courseID) + formatInt(unixNano)
}

// ParseOrderKey extracts the user and course from an order ID.
func ParseOrderKey(id string) (userID, courseID string, ok bool) {
	rest, found := strings.CutPrefix(id, prefixOrder)
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// LessonID builds the ID of a new lesson of a course.
func LessonID(courseID string, unixNano int64) string {
	return courseID + ":" + formatInt(unixNano)
}

// LessonCourseID extracts the course from a lesson ID.
func LessonCourseID(lessonID string) (string, bool) {
	courseID, _, found := strings.Cut(lessonID, ":")
	return courseID, found && courseID != ""
}
