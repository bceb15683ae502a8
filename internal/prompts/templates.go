// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompts

// Built-in template pools, ten per category. Short QA prompts stay
// under ~100 characters; long-form prompts exceed 200 so category
// inference heuristics downstream classify them correctly.

var shortQATemplates = []string{
	"What is the capital of France?",
	"Explain the concept of gravity in one sentence.",
	"What is 15 + 27?",
	"Name three programming languages.",
	"What year was the internet invented?",
	"Define artificial intelligence briefly.",
	"What is the largest planet in our solar system?",
	"How many sides does a hexagon have?",
	"What is the chemical symbol for gold?",
	"Name the four seasons.",
}

var longFormTemplates = []string{
	"Write a detailed essay about the impact of climate change on global agriculture, including specific examples and potential solutions.",
	"Explain the history and significance of the Renaissance period, covering art, science, and cultural developments.",
	"Describe the process of photosynthesis in plants, including the molecular mechanisms and environmental factors involved.",
	"Write a comprehensive analysis of the causes and consequences of World War II, focusing on major battles and political decisions.",
	"Explain the principles of machine learning, including different algorithms, applications, and ethical considerations.",
	"Describe the evolution of human language, from prehistoric communication to modern linguistic diversity.",
	"Write about the economic implications of cryptocurrency and blockchain technology on traditional financial systems.",
	"Explain the structure and function of the human brain, including neurotransmitters and cognitive processes.",
	"Describe the challenges and opportunities of space exploration in the 21st century.",
	"Write about the role of renewable energy in addressing global environmental challenges.",
}

var codeGenerationTemplates = []string{
	"Write a Python function that sorts a list of dictionaries by a specified key.",
	"Create a JavaScript function that validates an email address using regular expressions.",
	"Write a Python class to implement a simple stack data structure with push, pop, and peek methods.",
	"Create a SQL query to find the top 5 customers by total purchase amount from an e-commerce database.",
	"Write a Python function that calculates the Fibonacci sequence up to n terms.",
	"Create a JavaScript function that debounces user input with a specified delay.",
	"Write a Python script that reads a CSV file and calculates basic statistics for numeric columns.",
	"Create a function in any language that implements binary search on a sorted array.",
	"Write a Python decorator that measures and logs the execution time of functions.",
	"Create a REST API endpoint using Flask that handles user authentication and returns JSON responses.",
}
