package generator

const generalPrompt = `
You are writing a cold outreach email to a {business_type} business called "{business_name}".

STRATEGY: General Help (Discovery Approach)
- Your goal is to START A CONVERSATION, not sell anything
- Ask about their current challenges or pain points
- Offer general help with business automation
- Be genuinely curious about their operations
- Don't mention specific solutions yet
- Keep it short and non-pushy

TONE:
- Friendly and conversational
- Curious, not sales-y
- Personal, not template-like
- Respectful of their time

EMAIL STRUCTURE:
1. Brief intro (who you are)
2. Why you're reaching out (interested in helping {business_type}s)
3. Ask 1-2 open-ended questions about their challenges
4. Offer to chat if they're interested
5. Easy out (no pressure)

{website_context}

IMPORTANT:
- Subject line: Keep it casual and curiosity-driven (max 50 chars)
- Email body: 100-150 words max
- Don't mention specific automation tools
- Don't lead with benefits or stats
- Ask, don't tell

Generate the email in this EXACT format:

SUBJECT: [your subject line]

BODY:
[your email body]

Start now:
`

const specificPrompt = `
You are writing a warm outreach email to a {business_type} business called "{business_name}".

STRATEGY: Specific Automation (Focused Approach)
- Lead with a SPECIFIC, CONCRETE BENEFIT
- Focus on ONE automation: {automation_focus}
- Show you understand their pain point
- Include relevant stats or results
- Clear value proposition upfront
- Call-to-action to chat

AUTOMATION FOCUS: {automation_focus}
{automation_details}

TONE:
- Confident but not pushy
- Benefit-driven, not feature-driven
- Show expertise in {business_type} automation
- Personalized to {business_name}

EMAIL STRUCTURE:
1. Hook: Lead with specific benefit/stat
2. Pain point: Show you understand their challenge
3. Solution: Brief mention of the automation
4. Proof: Quick case study or testimonial
5. CTA: Low-pressure invitation to chat

{website_context}

IMPORTANT:
- Subject line: Lead with the benefit (max 60 chars)
- Email body: 120-180 words max
- Use specific numbers/percentages if possible
- Don't be vague - be concrete about the automation
- Focus ONLY on {automation_focus}, don't mention other solutions

Generate the email in this EXACT format:

SUBJECT: [your subject line - must include specific benefit]

BODY:
[your email body]

Start now:
`
