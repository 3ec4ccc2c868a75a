package storage

import "github.com/jon4hz/quizdeck/internal/models"

// DefaultQuestions returns the built-in question set.
func DefaultQuestions() []models.Question {
	return []models.Question{
		{ID: 1, Question: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, Answer: "4", Topic: "math"},
		{ID: 2, Question: "What is Capital of France?", Options: []string{"Berlin", "Madrid", "Paris", "London"}, Answer: "Paris", Topic: "general"},
		{ID: 3, Question: "HTML stands for?", Options: []string{"HyperText Markup Language", "Home Tool", "Hyperlinks and Text", "High Tech"}, Answer: "HyperText Markup Language", Topic: "programming"},
		{ID: 4, Question: "What is Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, Answer: "Mars", Topic: "science"},
		{ID: 5, Question: "Which mammal is called Largest mammal?", Options: []string{"Elephant", "Blue Whale", "Giraffe", "Hippo"}, Answer: "Blue Whale", Topic: "science"},
		{ID: 6, Question: "In which year did WW2 end?", Options: []string{"1942", "1945", "1948", "1950"}, Answer: "1945", Topic: "history"},
		{ID: 7, Question: "What is Fastest land animal?", Options: []string{"Cheetah", "Lion", "Horse", "Greyhound"}, Answer: "Cheetah", Topic: "sports"},
		{ID: 8, Question: "Which movie won Best Picture (2020)?", Options: []string{"Joker", "1917", "Parasite", "Ford v Ferrari"}, Answer: "Parasite", Topic: "movies"},
		{ID: 9, Question: "What is Largest ocean?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, Answer: "Pacific", Topic: "geography"},
		{ID: 10, Question: "Value of π (approx)?", Options: []string{"2.71", "3.14", "1.62", "1.41"}, Answer: "3.14", Topic: "math"},
		{ID: 11, Question: "HTTP stands for?", Options: []string{"HyperText Transfer Protocol", "High Tech Transfer Program", "Hyperlink Text Transport", "Host Transfer Type"}, Answer: "HyperText Transfer Protocol", Topic: "technology"},
		{ID: 12, Question: "How many states are there in India?", Options: []string{"28", "29", "30", "31"}, Answer: "28", Topic: "general"},
		{ID: 13, Question: "Expansion of CPU?", Options: []string{"Central Process Unit", "Central Processing Unit", "Computer Personal Unit", "Control Processing Unit"}, Answer: "Central Processing Unit", Topic: "technology"},
		{ID: 14, Question: "What are arithemetic operators?", Options: []string{"+ - * / %", "= == ===", "&& || !", "< > <= >="}, Answer: "+ - * / %", Topic: "programming"},
	}
}
