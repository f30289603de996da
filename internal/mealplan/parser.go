// Package mealplan turns free-form meal plan text from the text-generation
// service into structured records.
//
// The input format is loose: a title line, a description line, a totals line,
// then one block per meal that starts with a meal keyword and carries
// "- key: value" fields. Parse never fails. Input it cannot use yields the
// canned fallback plan.
package mealplan

import (
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

type Meal struct {
	Type         string
	Name         string
	Description  string
	Calories     float64
	Protein      float64
	Carbs        float64
	Fat          float64
	Ingredients  string
	Instructions string
}

type Plan struct {
	Title         string
	Description   string
	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
	Meals         []Meal
}

// Result always holds a usable plan. Fallback reports that the text could not
// be used and the canned plan was substituted.
type Result struct {
	Plan     Plan
	Fallback bool
}

type field int

const (
	fieldUnknown field = iota
	fieldName
	fieldDescription
	fieldCalories
	fieldProtein
	fieldCarbs
	fieldFat
	fieldIngredients
	fieldInstructions
	fieldTitle
)

var fieldAliases = map[string]field{
	"name":                fieldName,
	"dish":                fieldName,
	"tên":                 fieldName,
	"tên món":             fieldName,
	"món":                 fieldName,
	"description":         fieldDescription,
	"mô tả":               fieldDescription,
	"calories":            fieldCalories,
	"calorie":             fieldCalories,
	"kcal":                fieldCalories,
	"calo":                fieldCalories,
	"năng lượng":          fieldCalories,
	"protein":             fieldProtein,
	"proteins":            fieldProtein,
	"đạm":                 fieldProtein,
	"chất đạm":            fieldProtein,
	"carbs":               fieldCarbs,
	"carb":                fieldCarbs,
	"carbohydrate":        fieldCarbs,
	"carbohydrates":       fieldCarbs,
	"tinh bột":            fieldCarbs,
	"fat":                 fieldFat,
	"fats":                fieldFat,
	"béo":                 fieldFat,
	"chất béo":            fieldFat,
	"ingredients":         fieldIngredients,
	"nguyên liệu":         fieldIngredients,
	"thành phần":          fieldIngredients,
	"instructions":        fieldInstructions,
	"instruction":         fieldInstructions,
	"preparation":         fieldInstructions,
	"cách làm":            fieldInstructions,
	"cách chế biến":       fieldInstructions,
	"hướng dẫn":           fieldInstructions,
	"title":               fieldTitle,
	"tiêu đề":             fieldTitle,
	"tên thực đơn":        fieldTitle,
	"plan":                fieldTitle,
	"total calories":      fieldCalories,
	"total protein":       fieldProtein,
	"total carbs":         fieldCarbs,
	"total fat":           fieldFat,
	"tổng calo":           fieldCalories,
	"tổng năng lượng":     fieldCalories,
	"tổng protein":        fieldProtein,
	"tổng đạm":            fieldProtein,
	"tổng tinh bột":       fieldCarbs,
	"tổng chất béo":       fieldFat,
	"tổng carbs":          fieldCarbs,
	"tổng fat":            fieldFat,
	"tổng calories":       fieldCalories,
	"total calorie":       fieldCalories,
	"total carbohydrates": fieldCarbs,
}

var mealAliases = []struct {
	keyword string
	kind    string
}{
	{"bữa ăn nhẹ", MealSnack},
	{"bữa sáng", MealBreakfast},
	{"bữa trưa", MealLunch},
	{"bữa tối", MealDinner},
	{"bữa phụ", MealSnack},
	{"ăn nhẹ", MealSnack},
	{"breakfast", MealBreakfast},
	{"lunch", MealLunch},
	{"dinner", MealDinner},
	{"supper", MealDinner},
	{"snacks", MealSnack},
	{"snack", MealSnack},
}

// numberExpr prefers comma-grouped thousands ("2,100") over a decimal comma
// ("15,5").
const numberExpr = `-?[1-9]\d{0,2}(?:,\d{3})+(?:\.\d+)?|-?\d+(?:[.,]\d+)?`

var (
	numberPattern   = regexp.MustCompile(numberExpr)
	groupedNumber   = regexp.MustCompile(`^-?[1-9]\d{0,2}(?:,\d{3})+(?:\.\d+)?$`)
	bulletPattern   = regexp.MustCompile(`^(?:[-•+–]|\*\s)\s*`)
	orderingPattern = regexp.MustCompile(`^\d+[.)]\s*`)
	mealHeader      = buildMealHeaderPattern()

	totalsLabels = map[field]*regexp.Regexp{
		fieldCalories: labeledNumber(`calories|calorie|calo|kcal|năng lượng`, `kcal|calories|calo`),
		fieldProtein:  labeledNumber(`protein|chất đạm|đạm`, `protein|đạm`),
		fieldCarbs:    labeledNumber(`carbohydrates|carbohydrate|carbs|carb|tinh bột`, `carbs|carb|tinh bột`),
		fieldFat:      labeledNumber(`chất béo|fat|béo`, `fat|béo`),
	}
)

func buildMealHeaderPattern() *regexp.Regexp {
	keywords := make([]string, 0, len(mealAliases))
	for _, alias := range mealAliases {
		keywords = append(keywords, regexp.QuoteMeta(alias.keyword))
	}
	return regexp.MustCompile(`(?i)^(` + strings.Join(keywords, "|") + `)(?:\s*\([^)]*\))?\s*(?:[:\-–]\s*(.*))?$`)
}

// labeledNumber matches "label: 12" as well as "12g label".
func labeledNumber(before, after string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:(?:` + before + `)\s*[:=\-]?\s*(` + numberExpr + `)|(` + numberExpr + `)\s*(?:g|gr|grams?)?\s*(?:` + after + `))`)
}

// Parse extracts a plan from text. It never panics.
func Parse(text string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("meal plan parser recovered")
			result = Result{Plan: FallbackPlan(), Fallback: true}
		}
	}()

	plan, ok := parse(text)
	if !ok {
		return Result{Plan: FallbackPlan(), Fallback: true}
	}
	return Result{Plan: plan}
}

func parse(text string) (Plan, bool) {
	var plan Plan
	var current *Meal
	totalsSeen := map[field]bool{}

	flush := func() {
		if current == nil {
			return
		}
		if current.Name == "" {
			current.Name = mealTitle(current.Type)
		}
		plan.Meals = append(plan.Meals, *current)
		current = nil
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		body := cleanLine(bulletPattern.ReplaceAllString(line, ""))
		if body == "" {
			continue
		}

		key, value, known := splitField(body)

		if !known {
			if kind, name, ok := matchMealHeader(body); ok {
				flush()
				current = &Meal{Type: kind, Name: name}
				continue
			}
		}

		if current != nil {
			if isTotalsLine(body) && (applyTotals(&plan, body, totalsSeen) || known) {
				continue
			}
			if known {
				applyMealField(current, key, value)
				continue
			}
			switch {
			case current.Name == "":
				current.Name = body
			case current.Description == "":
				current.Description = body
			}
			continue
		}

		if known {
			switch key {
			case fieldTitle:
				plan.Title = value
			case fieldDescription:
				plan.Description = value
			case fieldCalories, fieldProtein, fieldCarbs, fieldFat:
				applyTotals(&plan, body, totalsSeen)
			}
			continue
		}

		if looksLikeTotals(body) && applyTotals(&plan, body, totalsSeen) {
			continue
		}

		switch {
		case plan.Title == "":
			plan.Title = body
		case plan.Description == "":
			plan.Description = body
		}
	}
	flush()

	if len(plan.Meals) == 0 {
		return Plan{}, false
	}
	if plan.Title == "" {
		plan.Title = fallbackTitle
	}
	recomputeTotals(&plan, totalsSeen)

	return plan, true
}

// cleanLine strips markdown emphasis, heading markers and list ordering.
func cleanLine(line string) string {
	line = strings.Trim(line, "#*_>` \t")
	line = orderingPattern.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "__", "")
	return strings.TrimSpace(line)
}

func splitField(line string) (field, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return fieldUnknown, "", false
	}

	key := strings.ToLower(strings.TrimSpace(strings.Trim(line[:idx], "*_ ")))
	key = strings.TrimSuffix(strings.TrimSpace(stripParenthetical(key)), ":")
	f, ok := fieldAliases[key]
	if !ok {
		return fieldUnknown, "", false
	}
	return f, strings.TrimSpace(strings.Trim(line[idx+1:], "*_ ")), true
}

// stripParenthetical drops units such as "(g)" or "(kcal)" from a key.
func stripParenthetical(key string) string {
	if open := strings.Index(key, "("); open >= 0 {
		return strings.TrimSpace(key[:open])
	}
	return key
}

func matchMealHeader(line string) (string, string, bool) {
	match := mealHeader.FindStringSubmatch(line)
	if match == nil {
		return "", "", false
	}

	keyword := strings.ToLower(match[1])
	for _, alias := range mealAliases {
		if alias.keyword == keyword {
			return alias.kind, cleanLine(match[2]), true
		}
	}
	return "", "", false
}

func applyMealField(meal *Meal, key field, value string) {
	switch key {
	case fieldName, fieldTitle:
		meal.Name = value
	case fieldDescription:
		meal.Description = value
	case fieldCalories:
		meal.Calories = firstNumber(value)
	case fieldProtein:
		meal.Protein = firstNumber(value)
	case fieldCarbs:
		meal.Carbs = firstNumber(value)
	case fieldFat:
		meal.Fat = firstNumber(value)
	case fieldIngredients:
		meal.Ingredients = value
	case fieldInstructions:
		meal.Instructions = value
	}
}

func looksLikeTotals(line string) bool {
	if isTotalsLine(line) {
		return true
	}

	matches := 0
	for _, pattern := range totalsLabels {
		if pattern.MatchString(line) {
			matches++
		}
	}
	return matches >= 2
}

// isTotalsLine reports a "Total ..." line. Inside a meal block it belongs to
// the plan, not the meal.
func isTotalsLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "total") || strings.HasPrefix(lower, "tổng")
}

// applyTotals sets every labeled total found in line and records it in seen.
func applyTotals(plan *Plan, line string, seen map[field]bool) bool {
	found := false
	targets := map[field]*float64{
		fieldCalories: &plan.TotalCalories,
		fieldProtein:  &plan.TotalProtein,
		fieldCarbs:    &plan.TotalCarbs,
		fieldFat:      &plan.TotalFat,
	}
	for key, pattern := range totalsLabels {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		value := match[1]
		if value == "" {
			value = match[2]
		}
		*targets[key] = parseNumber(value)
		seen[key] = true
		found = true
	}
	return found
}

// recomputeTotals sums the meals into every total the text did not state.
func recomputeTotals(plan *Plan, seen map[field]bool) {
	var calories, protein, carbs, fat float64
	for _, meal := range plan.Meals {
		calories += meal.Calories
		protein += meal.Protein
		carbs += meal.Carbs
		fat += meal.Fat
	}

	if !seen[fieldCalories] {
		plan.TotalCalories = calories
	}
	if !seen[fieldProtein] {
		plan.TotalProtein = protein
	}
	if !seen[fieldCarbs] {
		plan.TotalCarbs = carbs
	}
	if !seen[fieldFat] {
		plan.TotalFat = fat
	}
}

// firstNumber reads the first numeric token. A comma followed by groups of
// three digits separates thousands; any other comma is a decimal point.
// Text without a number is 0.
func firstNumber(value string) float64 {
	token := numberPattern.FindString(value)
	if token == "" {
		return 0
	}
	return parseNumber(token)
}

func parseNumber(token string) float64 {
	if groupedNumber.MatchString(token) {
		token = strings.ReplaceAll(token, ",", "")
	} else {
		token = strings.ReplaceAll(token, ",", ".")
	}
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func mealTitle(kind string) string {
	switch kind {
	case MealBreakfast:
		return "Breakfast"
	case MealLunch:
		return "Lunch"
	case MealDinner:
		return "Dinner"
	default:
		return "Snack"
	}
}

const fallbackTitle = "Balanced daily meal plan"

// FallbackPlan is the canned plan used when generated text is unusable.
func FallbackPlan() Plan {
	meal := Meal{
		Type:         MealBreakfast,
		Name:         "Oatmeal with banana and peanut butter",
		Description:  "A filling breakfast with slow carbs and healthy fats.",
		Calories:     350,
		Protein:      12,
		Carbs:        55,
		Fat:          10,
		Ingredients:  "50g rolled oats, 1 banana, 1 tbsp peanut butter, 200ml milk",
		Instructions: "Cook the oats in milk for 5 minutes, top with sliced banana and peanut butter.",
	}

	return Plan{
		Title:         fallbackTitle,
		Description:   "A simple sample plan. Generate again for a plan tailored to your goal.",
		TotalCalories: meal.Calories,
		TotalProtein:  meal.Protein,
		TotalCarbs:    meal.Carbs,
		TotalFat:      meal.Fat,
		Meals:         []Meal{meal},
	}
}
