package services

import "strings"

const (
	resumePlaceholder         = "{{RESUME}}"
	jobDescriptionPlaceholder = "{{JOB_DESCRIPTION}}"
)

// ReportPromptTemplate is the fixed instruction sent to the language model.
const ReportPromptTemplate = `# Context:
- You are an AI Resume Analyzer. You will be given a candidate's resume and the job description of the role they are applying for.

# Instruction:
- Analyze the candidate's resume against every point that can be extracted from the job description, and evaluate each point with the criteria below.
- Consider all points such as required skills, experience and qualifications that are needed for the job role.
- Give a score out of 5 for every point at the beginning of that point, followed by a detailed explanation.
- If the resume aligns with the job description point, mark it with ✅ and provide a detailed explanation.
- If the resume doesn't align with the job description point, mark it with ❌ and provide a reason for it.
- If a clear conclusion cannot be made, use a ⚠️ sign with a reason.
- The final heading should be "Suggestions to improve your resume:" and describe where and what the candidate can improve to be selected for the role.

# Inputs:
Candidate Resume: {{RESUME}}
---
Job Description: {{JOB_DESCRIPTION}}

# Output:
- Every point must be given a score (example: 3/5).
- Put the score and the relevant emoji at the beginning of each point, then explain the reason.
`

// BuildReportPrompt embeds both texts verbatim into ReportPromptTemplate.
func BuildReportPrompt(resume, jobDescription string) string {
	// A single pass keeps placeholder-like text inside the inputs untouched.
	r := strings.NewReplacer(
		resumePlaceholder, resume,
		jobDescriptionPlaceholder, jobDescription,
	)
	return r.Replace(ReportPromptTemplate)
}
