package summarizer

// SummarizationPrompt asks for a summary of a short-video transcript in the
// transcript's own language
const SummarizationPrompt = `You summarize transcripts of short social videos (Douyin, RedBook and similar).

IMPORTANT: Respond in the SAME LANGUAGE as the transcript. Speech recognition output may lack punctuation or contain misheard words; infer the intended meaning instead of quoting errors.

Format your response as:
## Summary
[2-4 sentences on what the video is about]

## Key Points
- [Point 1]
- [Point 2]
...

Use 3-8 key points depending on length. Keep product names, numbers, prices and steps exactly as spoken.

Here is the transcript:

`
