package services

import (
	"strings"

	"loan-compare/internal/models"
)

// LoanType is a selectable loan product
type LoanType struct {
	Key   string
	Label string
}

// LoanTypes lists the products in display order
var LoanTypes = []LoanType{
	{Key: models.LoanTypePersonal, Label: "Personal Loan"},
	{Key: models.LoanTypeHome, Label: "Home Loan"},
	{Key: models.LoanTypeCar, Label: "Car Loan"},
	{Key: models.LoanTypeEducation, Label: "Education Loan"},
	{Key: models.LoanTypeBusiness, Label: "Business Loan"},
}

// MapLoanTypeToKey resolves a product label or key to a questionnaire key.
// Anything unrecognized resolves to personal.
func MapLoanTypeToKey(labelOrKey string) string {
	value := strings.ToLower(strings.TrimSpace(labelOrKey))
	for _, lt := range LoanTypes {
		if value == lt.Key || value == strings.ToLower(lt.Label) {
			return lt.Key
		}
	}
	return models.LoanTypePersonal
}

// LoanTypeLabel returns the display label for a key, or the key itself when unknown
func LoanTypeLabel(key string) string {
	for _, lt := range LoanTypes {
		if lt.Key == key {
			return lt.Label
		}
	}
	return key
}

// QuestionsFor returns the built-in questionnaire for a loan type: the common
// applicant questions followed by the type's own questions, numbered from 1.
// Unknown keys get the personal questionnaire.
func QuestionsFor(loanTypeKey string) []models.LoanQuestion {
	specific, ok := typeQuestions[loanTypeKey]
	if !ok {
		loanTypeKey = models.LoanTypePersonal
		specific = typeQuestions[loanTypeKey]
	}

	questions := make([]models.LoanQuestion, 0, len(commonQuestions)+len(specific))
	for _, q := range append(append([]models.LoanQuestion{}, commonQuestions...), specific...) {
		q.LoanType = loanTypeKey
		q.SequenceOrder = len(questions) + 1
		if q.Options != nil {
			q.Options = append(models.QuestionOptions{}, q.Options...)
		}
		questions = append(questions, q)
	}
	return questions
}

func text(field, label, placeholder string) models.LoanQuestion {
	return models.LoanQuestion{Field: field, Type: models.QuestionTypeText, Label: label, Placeholder: placeholder, Required: true}
}

func number(field, label, placeholder string) models.LoanQuestion {
	return models.LoanQuestion{Field: field, Type: models.QuestionTypeNumber, Label: label, Placeholder: placeholder, Required: true}
}

func radio(field, label string, options ...string) models.LoanQuestion {
	opts := make(models.QuestionOptions, 0, len(options)/2)
	for i := 0; i+1 < len(options); i += 2 {
		opts = append(opts, models.QuestionOption{Value: options[i], Label: options[i+1]})
	}
	return models.LoanQuestion{Field: field, Type: models.QuestionTypeRadio, Label: label, Options: opts, Required: true}
}

func withHelp(q models.LoanQuestion, help string) models.LoanQuestion {
	q.HelpText = help
	return q
}

var commonQuestions = []models.LoanQuestion{
	text("fullName", "What is your full name?", "Enter your full name as per PAN card"),
	withHelp(text("dateOfBirth", "What is your date of birth?", "DD/MM/YYYY"), "You must be at least 21 years old to apply"),
	text("email", "What is your email address?", "you@example.com"),
	withHelp(text("phone", "What is your mobile number?", "10-digit mobile number"), "We will send application updates to this number"),
	text("address", "What is your current residential address?", "House number, street, city, PIN code"),
}

var (
	employmentType = radio("employmentType", "What is your employment type?",
		"salaried", "Salaried",
		"self-employed", "Self-employed",
		"business-owner", "Business owner",
		"retired", "Retired",
	)

	monthlyIncome = withHelp(number("monthlyIncome", "What is your monthly income?", "Amount in ₹"),
		"Net take-home income after taxes")

	collateral = radio("collateralAvailable", "Can you offer collateral for this loan?",
		"yes", "Yes",
		"no", "No",
	)
)

func tenure(options ...string) models.LoanQuestion {
	return radio("loanTenure", "Preferred loan tenure", options...)
}

func amount(label string) models.LoanQuestion {
	return number("loanAmount", label, "Amount in ₹")
}

var typeQuestions = map[string][]models.LoanQuestion{
	models.LoanTypePersonal: {
		amount("How much would you like to borrow?"),
		radio("loanPurpose", "What will you use the loan for?",
			"medical", "Medical expenses",
			"wedding", "Wedding",
			"travel", "Travel",
			"debt-consolidation", "Debt consolidation",
			"home-renovation", "Home renovation",
			"other", "Other",
		),
		employmentType,
		monthlyIncome,
		text("employerName", "Who is your current employer?", "Company or business name"),
		withHelp(radio("creditScore", "What is your approximate credit score?",
			"750+", "750 and above",
			"700-749", "700 - 749",
			"650-699", "650 - 699",
			"below-650", "Below 650",
		), "An estimate is fine; we do not run a credit check at this stage"),
		radio("existingLoans", "Do you have any existing loans?",
			"none", "No existing loans",
			"one", "One",
			"multiple", "More than one",
		),
		tenure(
			"12", "1 year",
			"24", "2 years",
			"36", "3 years",
			"60", "5 years",
		),
	},
	models.LoanTypeHome: {
		amount("How much home loan do you need?"),
		radio("propertyType", "What type of property is it?",
			"apartment", "Apartment",
			"independent-house", "Independent house",
			"villa", "Villa",
			"plot", "Plot",
		),
		withHelp(number("propertyValue", "What is the market value of the property?", "Amount in ₹"),
			"Agreement value or a recent valuation"),
		text("propertyLocation", "Where is the property located?", "City and locality"),
		radio("propertyStatus", "What is the status of the property?",
			"ready", "Ready to move in",
			"under-construction", "Under construction",
			"resale", "Resale",
		),
		employmentType,
		monthlyIncome,
		tenure(
			"120", "10 years",
			"180", "15 years",
			"240", "20 years",
			"300", "25 years",
			"360", "30 years",
		),
	},
	models.LoanTypeCar: {
		amount("How much car loan do you need?"),
		radio("carType", "Is the car new or used?",
			"new", "New",
			"used", "Used",
		),
		text("carModel", "Which make and model are you buying?", "e.g. Maruti Swift VXi"),
		number("carPrice", "What is the on-road price of the car?", "Amount in ₹"),
		employmentType,
		monthlyIncome,
		tenure(
			"12", "1 year",
			"36", "3 years",
			"60", "5 years",
			"84", "7 years",
		),
	},
	models.LoanTypeEducation: {
		amount("How much education loan do you need?"),
		text("courseName", "Which course are you enrolling in?", "e.g. MS Computer Science"),
		text("institutionName", "Which institution will you attend?", "University or college name"),
		radio("courseType", "What level is the course?",
			"undergraduate", "Undergraduate",
			"postgraduate", "Postgraduate",
			"diploma", "Diploma",
			"doctorate", "Doctorate",
		),
		radio("studyLocation", "Where will you study?",
			"india", "India",
			"abroad", "Abroad",
		),
		number("courseDuration", "How long is the course (in months)?", "Duration in months"),
		withHelp(number("monthlyIncome", "What is your monthly household income?", "Amount in ₹"),
			"Combined income of you and your co-applicant"),
		collateral,
	},
	models.LoanTypeBusiness: {
		amount("How much business loan do you need?"),
		text("businessName", "What is the name of your business?", "Registered business name"),
		radio("businessType", "How is the business registered?",
			"proprietorship", "Sole proprietorship",
			"partnership", "Partnership",
			"private-limited", "Private limited",
			"llp", "LLP",
		),
		number("yearsInBusiness", "How many years has the business been operating?", "Years"),
		number("annualTurnover", "What is the annual turnover?", "Amount in ₹"),
		radio("loanPurpose", "What will you use the loan for?",
			"working-capital", "Working capital",
			"expansion", "Expansion",
			"equipment", "Equipment purchase",
			"inventory", "Inventory",
		),
		collateral,
		withHelp(number("monthlyIncome", "What is your monthly business income?", "Amount in ₹"),
			"Average monthly profit over the last year"),
		tenure(
			"12", "1 year",
			"36", "3 years",
			"60", "5 years",
		),
	},
}
