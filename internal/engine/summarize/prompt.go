package summarize

// LLM prompt templates — data only, no logic.

const systemSummarizer = `You are an expert at summarizing video transcripts.
You produce accurate, well-organized summaries that preserve the key points,
names, numbers, and conclusions from the source material. You never invent
information that is not present in the transcript.`

// promptConcise — short prose summary.
// Args: transcript text.
const promptConcise = `Summarize the following video transcript in 2-4 paragraphs of plain prose.
Focus on the main topics, key arguments, and conclusions.
Do NOT use markdown headers or bullet points.
Answer in the same language as the transcript.

Transcript:
%s`

// promptBullets — structured key-point summary.
// Args: transcript text.
const promptBullets = `Summarize the following video transcript as a bullet-point list.
Produce 5-12 bullets, each a complete sentence covering one key point.
Include specific names, numbers, and recommendations where present.
Answer in the same language as the transcript.

Transcript:
%s`

// promptDetailed — thorough section-by-section summary.
// Args: transcript text.
const promptDetailed = `Write a detailed summary of the following video transcript.
Cover each major topic in order, preserving important details, examples,
numbers, and quotes. Use short paragraphs; a few section headings are fine.
Answer in the same language as the transcript.

Transcript:
%s`

// promptChunk — intermediate summary of one transcript slice during map-reduce.
// Args: transcript slice.
const promptChunk = `The text below is one part of a longer video transcript.
Summarize this part thoroughly, keeping all key points, names, and numbers.
This intermediate summary will be combined with summaries of the other parts,
so do not add introductions or conclusions about the video as a whole.

Part:
%s`

// promptCombine — fold intermediate summaries into the final one.
// Args: style-specific instruction keyword ("prose paragraphs", "bullet points", "detailed sections"),
// concatenated intermediate summaries.
const promptCombine = `The texts below are summaries of consecutive parts of one video transcript.
Merge them into a single coherent summary using %s.
Remove repetition between parts and keep the original order of topics.
Answer in the same language as the source texts.

Part summaries:
%s`
