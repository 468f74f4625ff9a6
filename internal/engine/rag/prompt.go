package rag

// LLM prompt templates — data only, no logic.

// systemQA frames the model as a grounded video QA assistant.
const systemQA = `You are a helpful assistant that answers questions about a video
based on its transcript. Ground every answer in the provided transcript context.
If the context does not contain the answer, say so honestly instead of guessing.
Answer in the same language as the question.`

// promptQA assembles one QA turn.
// Args: conversation history, transcript context, question.
const promptQA = `Conversation so far:
%s

Transcript context:
%s

Question: %s

Answer based on the transcript context above.`

// fallbackNoContext is used as context when retrieval returns nothing
// and the full transcript is unavailable.
const fallbackNoContext = "No relevant information found in the video transcript."

// fallbackAnswerError is returned to the user when generation fails;
// the QA surface never propagates raw provider errors.
const fallbackAnswerError = "I encountered an error while processing your question. Please try again."
